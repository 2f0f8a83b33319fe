package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	bookingserrors "roombook/internal/bookings/errors"
	"roombook/internal/bookings/repository"
	"roombook/internal/bookings/validator"
	roomserrors "roombook/internal/rooms/errors"
	roomsrepo "roombook/internal/rooms/repository"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/kafka"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	EventBookingCreated = "booking.created"
	EventBookingUpdated = "booking.updated"
	EventBookingDeleted = "booking.deleted"

	eventSource = "roombook"
	lockTTL     = 10 * time.Second
)

// EventPublisher emits booking lifecycle events. A nil publisher disables
// eventing without touching the write path.
type EventPublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type BookingService interface {
	Create(ctx context.Context, principal *model.Principal, booking *model.Booking) error
	GetByID(ctx context.Context, principal *model.Principal, id string) (*model.Booking, error)
	GetAll(ctx context.Context, principal *model.Principal, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, principal *model.Principal, id string, updates *model.BookingUpdate) error
	Delete(ctx context.Context, principal *model.Principal, id string) error
}

type bookingService struct {
	repo      repository.BookingRepository
	lockRepo  repository.RoomLockRepository
	rooms     roomsrepo.RoomRepository
	validator *validator.BookingValidator
	events    EventPublisher
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	lockRepo repository.RoomLockRepository,
	rooms roomsrepo.RoomRepository,
	validator *validator.BookingValidator,
	events EventPublisher,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		lockRepo:  lockRepo,
		rooms:     rooms,
		validator: validator,
		events:    events,
		cfg:       cfg,
	}
}

func (s *bookingService) Create(ctx context.Context, principal *model.Principal, booking *model.Booking) error {
	if principal == nil {
		return apperrors.Unauthorized("Authentication required")
	}

	if booking.ClientID == "" {
		booking.ClientID = principal.UserID
	} else if booking.ClientID != principal.UserID && !principal.IsSuperuser {
		return apperrors.Forbidden("Cannot create bookings for another client")
	}

	if err := s.validate(booking); err != nil {
		return err
	}
	if err := s.verifyRoomExists(ctx, booking.RoomID); err != nil {
		return err
	}

	lockID, err := s.acquireRoomLock(ctx, booking.RoomID)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseRoomLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release room lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyNoOverlap(sessCtx, booking); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "error", err)
		return err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"room_id", booking.RoomID,
		"client_id", booking.ClientID,
		"start_time", booking.StartTime,
	)
	s.publishEvent(ctx, EventBookingCreated, booking)
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, principal *model.Principal, id string) (*model.Booking, error) {
	if principal == nil {
		return nil, apperrors.Unauthorized("Authentication required")
	}

	booking, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !canAccess(principal, booking) {
		return nil, apperrors.Forbidden("You do not have permission to access this booking")
	}

	return booking, nil
}

// GetAll returns the caller's own bookings. Administrators see everything.
func (s *bookingService) GetAll(ctx context.Context, principal *model.Principal, limit int, offset int64) ([]*model.Booking, int64, error) {
	if principal == nil {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if principal.IsSuperuser {
			count, errCount = s.repo.Count(ctx)
		} else {
			count, errCount = s.repo.CountByClient(ctx, principal.UserID)
		}
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		if principal.IsSuperuser {
			bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		} else {
			bookings, errFind = s.repo.FindByClient(ctx, principal.UserID, limit, offset)
		}
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *bookingService) Update(ctx context.Context, principal *model.Principal, id string, updates *model.BookingUpdate) error {
	if principal == nil {
		return apperrors.Unauthorized("Authentication required")
	}

	existing, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	if !principal.IsSuperuser {
		return apperrors.Forbidden("Only administrators can modify bookings")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeBookingUpdates(existing, updates)
	if err := s.validate(merged); err != nil {
		return err
	}
	if merged.RoomID != existing.RoomID {
		if err := s.verifyRoomExists(ctx, merged.RoomID); err != nil {
			return err
		}
	}

	lockID, err := s.acquireRoomLock(ctx, merged.RoomID)
	if err != nil {
		return err
	}
	defer func() {
		if releaseErr := s.releaseRoomLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release room lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.verifyNoOverlap(sessCtx, merged); err != nil {
			return err
		}
		if _, err := s.repo.Update(sessCtx, id, merged); err != nil {
			return apperrors.Internal("Failed to update booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return err
	}

	s.cfg.Log.Info("Booking updated successfully", "id", id)
	merged.ID = id
	s.publishEvent(ctx, EventBookingUpdated, merged)
	return nil
}

func (s *bookingService) Delete(ctx context.Context, principal *model.Principal, id string) error {
	if principal == nil {
		return apperrors.Unauthorized("Authentication required")
	}

	existing, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}
	if !canAccess(principal, existing) {
		return apperrors.Forbidden("You do not have permission to delete this booking")
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, bookingserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			return apperrors.Internal("Failed to delete booking", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Booking deleted successfully", "id", id)
	s.publishEvent(ctx, EventBookingDeleted, existing)
	return nil
}

// --- Helpers ---

func (s *bookingService) findByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func canAccess(principal *model.Principal, booking *model.Booking) bool {
	return principal.IsSuperuser || booking.ClientID == principal.UserID
}

func (s *bookingService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *bookingService) verifyRoomExists(ctx context.Context, roomID string) error {
	_, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) || errors.Is(err, roomserrors.ErrInvalidID) {
			return apperrors.Validation("Room does not exist", map[string]any{"field": "room"})
		}
		return apperrors.Internal("Failed to verify room", err)
	}
	return nil
}

// verifyNoOverlap rejects the booking when any other booking of the same
// room shares an instant with it. Intervals are closed, so touching
// endpoints count as an overlap. The booking's own document is skipped,
// which lets an update keep or shrink its current window.
func (s *bookingService) verifyNoOverlap(ctx context.Context, booking *model.Booking) error {
	existing, err := s.repo.FindOverlapping(ctx, booking.RoomID, booking.StartTime, booking.EndTime)
	if err != nil {
		return apperrors.Internal("Failed to check existing bookings", err)
	}

	for _, b := range existing {
		if b.ID == booking.ID {
			continue
		}
		if model.Overlaps(b.StartTime, b.EndTime, booking.StartTime, booking.EndTime) {
			return apperrors.Validation(fmt.Sprintf(
				"Booking overlaps with an existing booking (%s - %s)",
				b.StartTime.Format(time.RFC3339),
				b.EndTime.Format(time.RFC3339),
			), map[string]any{"field": "start_time"})
		}
	}
	return nil
}

func (s *bookingService) mergeBookingUpdates(existing *model.Booking, updates *model.BookingUpdate) *model.Booking {
	merged := *existing

	if updates.RoomID != "" {
		merged.RoomID = updates.RoomID
	}
	if updates.ClientID != "" {
		merged.ClientID = updates.ClientID
	}
	if updates.StartTime != nil {
		merged.StartTime = *updates.StartTime
	}
	if updates.EndTime != nil {
		merged.EndTime = *updates.EndTime
	}

	return &merged
}

// acquireRoomLock serializes booking writes for one room. Contention maps
// to 409 so the caller can retry.
func (s *bookingService) acquireRoomLock(ctx context.Context, roomID string) (string, error) {
	lockID := fmt.Sprintf("room_%s", roomID)

	lock := &model.RoomLock{
		ID:        lockID,
		ExpiresAt: time.Now().UTC().Add(lockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This room is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire room lock", err)
	}

	return lockID, nil
}

func (s *bookingService) releaseRoomLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

// publishEvent emits a lifecycle event keyed by room so per-room ordering
// is preserved. Publish failures are logged and never fail the request.
func (s *bookingService) publishEvent(ctx context.Context, eventType string, booking *model.Booking) {
	if s.events == nil {
		return
	}

	msg := kafka.NewMessage().
		WithKey(booking.RoomID).
		WithValue(booking).
		WithEventType(eventType).
		WithSource(eventSource).
		Build()

	if err := s.events.Publish(ctx, msg); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}
