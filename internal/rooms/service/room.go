package service

import (
	"context"
	"errors"
	"sync"

	bookingsrepo "roombook/internal/bookings/repository"
	roomserrors "roombook/internal/rooms/errors"
	"roombook/internal/rooms/repository"
	"roombook/internal/rooms/validator"
	"roombook/pkg/config"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

type RoomService interface {
	Create(ctx context.Context, principal *model.Principal, room *model.Room) error
	GetByID(ctx context.Context, id string) (*model.Room, error)
	GetAll(ctx context.Context, filter *model.RoomFilter, limit int, offset int64) ([]*model.Room, int64, error)
	Update(ctx context.Context, principal *model.Principal, id string, updates *model.RoomUpdate) error
	Delete(ctx context.Context, principal *model.Principal, id string) error
}

type roomService struct {
	repo      repository.RoomRepository
	bookings  bookingsrepo.BookingRepository
	validator *validator.RoomValidator
	cfg       *config.Config
}

func NewRoomService(
	repo repository.RoomRepository,
	bookings bookingsrepo.BookingRepository,
	validator *validator.RoomValidator,
	cfg *config.Config,
) RoomService {
	return &roomService{
		repo:      repo,
		bookings:  bookings,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *roomService) Create(ctx context.Context, principal *model.Principal, room *model.Room) error {
	if err := requireAdmin(principal); err != nil {
		return err
	}

	if err := s.validator.Validate(room); err != nil {
		s.cfg.Log.Warn("Room validation failed", "error", err)
		return apperrors.Validation("Room validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, room); err != nil {
		if errors.Is(err, roomserrors.ErrDuplicateNumber) {
			return apperrors.Validation("A room with that number already exists", map[string]any{"field": "number"})
		}
		s.cfg.Log.Error("Failed to create room", "error", err)
		return apperrors.Internal("Failed to create room", err)
	}

	s.cfg.Log.Info("Room created successfully", "id", room.ID, "number", room.Number)
	return nil
}

func (s *roomService) GetByID(ctx context.Context, id string) (*model.Room, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Room ID cannot be empty")
	}

	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, roomserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Room", id)
		}
		if errors.Is(err, roomserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid room ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve room", err)
	}

	return room, nil
}

// GetAll lists rooms matching the filter. When an availability window is
// requested, rooms holding any booking that overlaps the window are removed
// from the result. A room with no bookings is always available.
func (s *roomService) GetAll(ctx context.Context, filter *model.RoomFilter, limit int, offset int64) ([]*model.Room, int64, error) {
	var excludeIDs []string
	if filter != nil && filter.Window != nil {
		busy, err := s.bookings.BusyRoomIDs(ctx, filter.Window.Start, filter.Window.End)
		if err != nil {
			s.cfg.Log.Error("Failed to resolve busy rooms", "error", err)
			return nil, 0, apperrors.Internal("Failed to check room availability", err)
		}
		excludeIDs = busy
	}

	var count int64
	var rooms []*model.Room
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter, excludeIDs)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count rooms", "error", errCount)
			errCount = apperrors.Internal("Failed to count rooms", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		rooms, errFind = s.repo.FindAll(ctx, filter, excludeIDs, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list rooms", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve rooms", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return rooms, count, nil
}

func (s *roomService) Update(ctx context.Context, principal *model.Principal, id string, updates *model.RoomUpdate) error {
	if err := requireAdmin(principal); err != nil {
		return err
	}
	if id == "" {
		return apperrors.InvalidInput("Room ID cannot be empty")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Room update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeRoomUpdates(existing, updates)
	if err := s.validator.Validate(merged); err != nil {
		return apperrors.Validation("Room validation failed", map[string]any{"error": err.Error()})
	}

	if _, err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, roomserrors.ErrDuplicateNumber) {
			return apperrors.Validation("A room with that number already exists", map[string]any{"field": "number"})
		}
		if errors.Is(err, roomserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Room", id)
		}
		s.cfg.Log.Error("Failed to update room", "id", id, "error", err)
		return apperrors.Internal("Failed to update room", err)
	}

	s.cfg.Log.Info("Room updated successfully", "id", id)
	return nil
}

// Delete removes the room and every booking attached to it in a single
// transaction, so no booking is left pointing at a missing room.
func (s *roomService) Delete(ctx context.Context, principal *model.Principal, id string) error {
	if err := requireAdmin(principal); err != nil {
		return err
	}
	if id == "" {
		return apperrors.InvalidInput("Room ID cannot be empty")
	}

	var removedBookings int64
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.repo.Delete(sessCtx, id); err != nil {
			if errors.Is(err, roomserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Room", id)
			}
			if errors.Is(err, roomserrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid room ID format")
			}
			return apperrors.Internal("Failed to delete room", err)
		}

		deleted, err := s.bookings.DeleteByRoom(sessCtx, id)
		if err != nil {
			return apperrors.Internal("Failed to delete room bookings", err)
		}
		removedBookings = deleted
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Room deleted successfully", "id", id, "cascaded_bookings", removedBookings)
	return nil
}

func (s *roomService) mergeRoomUpdates(existing *model.Room, updates *model.RoomUpdate) *model.Room {
	merged := *existing

	if updates.Number != nil {
		merged.Number = *updates.Number
	}
	if updates.CostPerDay != nil {
		merged.CostPerDay = *updates.CostPerDay
	}
	if updates.Beds != nil {
		merged.Beds = *updates.Beds
	}

	return &merged
}

func requireAdmin(principal *model.Principal) error {
	if principal == nil {
		return apperrors.Unauthorized("Authentication required")
	}
	if !principal.IsSuperuser {
		return apperrors.Forbidden("Administrator access required")
	}
	return nil
}
