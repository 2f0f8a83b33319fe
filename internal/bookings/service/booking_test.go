package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"roombook/internal/bookings/repository"
	bookingvalidator "roombook/internal/bookings/validator"
	roomserrors "roombook/internal/rooms/errors"
	"roombook/pkg/config"
	mongotx "roombook/pkg/db/mongo"
	apperrors "roombook/pkg/errors"
	"roombook/pkg/kafka"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"go.mongodb.org/mongo-driver/mongo"
)

const (
	roomID    = "507f1f77bcf86cd799439011"
	ownerID   = "507f191e810c19729de860ea"
	otherID   = "507f191e810c19729de860eb"
	bookingID = "65f1f77bcf86cd7994390000"
)

func testConfig() *config.Config {
	return &config.Config{
		Log: logger.New(logger.Config{
			Level:     "error",
			Format:    logger.JSON,
			AddSource: false,
			Service:   "test",
		}),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
}

func owner() *model.Principal {
	return &model.Principal{UserID: ownerID, Username: "owner"}
}

func admin() *model.Principal {
	return &model.Principal{UserID: otherID, Username: "admin", IsSuperuser: true}
}

func stranger() *model.Principal {
	return &model.Principal{UserID: otherID, Username: "stranger"}
}

func futureWindow(startHours, endHours int) (time.Time, time.Time) {
	base := time.Now().UTC().Add(240 * time.Hour).Truncate(time.Hour)
	return base.Add(time.Duration(startHours) * time.Hour), base.Add(time.Duration(endHours) * time.Hour)
}

// --- Mocks ---

type mockBookingRepository struct {
	createFunc          func(ctx context.Context, booking *model.Booking) error
	findByIDFunc        func(ctx context.Context, id string) (*model.Booking, error)
	findByClientFunc    func(ctx context.Context, clientID string, limit int, offset int64) ([]*model.Booking, error)
	findAllFunc         func(ctx context.Context, limit int, offset int64) ([]*model.Booking, error)
	findOverlappingFunc func(ctx context.Context, roomID string, start, end time.Time) ([]*model.Booking, error)
	busyRoomIDsFunc     func(ctx context.Context, start, end time.Time) ([]string, error)
	updateFunc          func(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error)
	deleteFunc          func(ctx context.Context, id string) error
	deleteByRoomFunc    func(ctx context.Context, roomID string) (int64, error)
	countFunc           func(ctx context.Context) (int64, error)
	countByClientFunc   func(ctx context.Context, clientID string) (int64, error)
}

func (m *mockBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, booking)
	}
	booking.ID = bookingID
	return nil
}

func (m *mockBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockBookingRepository) FindByClient(ctx context.Context, clientID string, limit int, offset int64) ([]*model.Booking, error) {
	if m.findByClientFunc != nil {
		return m.findByClientFunc(ctx, clientID, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, limit, offset)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) FindOverlapping(ctx context.Context, roomID string, start, end time.Time) ([]*model.Booking, error) {
	if m.findOverlappingFunc != nil {
		return m.findOverlappingFunc(ctx, roomID, start, end)
	}
	return []*model.Booking{}, nil
}

func (m *mockBookingRepository) BusyRoomIDs(ctx context.Context, start, end time.Time) ([]string, error) {
	if m.busyRoomIDsFunc != nil {
		return m.busyRoomIDsFunc(ctx, start, end)
	}
	return nil, nil
}

func (m *mockBookingRepository) Update(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, booking)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockBookingRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockBookingRepository) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	if m.deleteByRoomFunc != nil {
		return m.deleteByRoomFunc(ctx, roomID)
	}
	return 0, nil
}

func (m *mockBookingRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockBookingRepository) CountByClient(ctx context.Context, clientID string) (int64, error) {
	if m.countByClientFunc != nil {
		return m.countByClientFunc(ctx, clientID)
	}
	return 0, nil
}

func (m *mockBookingRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

func (m *mockBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockLockRepository struct {
	createFunc func(ctx context.Context, lock *model.RoomLock) (*model.RoomLock, error)
	deleted    []string
}

func (m *mockLockRepository) Create(ctx context.Context, lock *model.RoomLock) (*model.RoomLock, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, lock)
	}
	return lock, nil
}

func (m *mockLockRepository) Delete(ctx context.Context, lockID string) error {
	m.deleted = append(m.deleted, lockID)
	return nil
}

func (m *mockLockRepository) EnsureIndexes(ctx context.Context) error {
	return nil
}

type mockRoomFinder struct {
	findByIDFunc func(ctx context.Context, id string) (*model.Room, error)
}

func (m *mockRoomFinder) FindByID(ctx context.Context, id string) (*model.Room, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return &model.Room{ID: id, Number: "101", Beds: 2}, nil
}

func (m *mockRoomFinder) Create(ctx context.Context, room *model.Room) error { return nil }
func (m *mockRoomFinder) FindAll(ctx context.Context, filter *model.RoomFilter, excludeIDs []string, limit int, offset int64) ([]*model.Room, error) {
	return nil, nil
}
func (m *mockRoomFinder) Update(ctx context.Context, id string, room *model.Room) (*mongo.UpdateResult, error) {
	return nil, nil
}
func (m *mockRoomFinder) Delete(ctx context.Context, id string) error { return nil }
func (m *mockRoomFinder) Count(ctx context.Context, filter *model.RoomFilter, excludeIDs []string) (int64, error) {
	return 0, nil
}
func (m *mockRoomFinder) EnsureIndexes(ctx context.Context) error { return nil }
func (m *mockRoomFinder) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockPublisher struct {
	published []kafka.Message
	err       error
}

func (m *mockPublisher) Publish(ctx context.Context, msg kafka.Message) error {
	m.published = append(m.published, msg)
	return m.err
}

func newTestService(repo repository.BookingRepository, locks repository.RoomLockRepository, rooms *mockRoomFinder, events EventPublisher) BookingService {
	cfg := testConfig()
	return NewBookingService(repo, locks, rooms, bookingvalidator.NewBookingValidator(cfg.Log), events, cfg)
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	appErr, ok := err.(*apperrors.AppError)
	if !ok {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	return appErr.StatusCode()
}

// --- Create ---

func TestCreate_RequiresAuthentication(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, &mockRoomFinder{}, nil)

	start, end := futureWindow(0, 2)
	err := svc.Create(context.Background(), nil, &model.Booking{RoomID: roomID, StartTime: start, EndTime: end})

	if got := statusOf(t, err); got != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", got)
	}
}

func TestCreate_DefaultsClientToPrincipal(t *testing.T) {
	repo := &mockBookingRepository{}
	svc := newTestService(repo, &mockLockRepository{}, &mockRoomFinder{}, nil)

	start, end := futureWindow(0, 2)
	booking := &model.Booking{RoomID: roomID, StartTime: start, EndTime: end}
	if err := svc.Create(context.Background(), owner(), booking); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.ClientID != ownerID {
		t.Errorf("client = %q, expected principal %q", booking.ClientID, ownerID)
	}
}

func TestCreate_ForbidsBookingForAnotherClient(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, &mockRoomFinder{}, nil)

	start, end := futureWindow(0, 2)
	err := svc.Create(context.Background(), owner(), &model.Booking{
		RoomID: roomID, ClientID: otherID, StartTime: start, EndTime: end,
	})

	if got := statusOf(t, err); got != http.StatusForbidden {
		t.Errorf("expected 403, got %d", got)
	}
}

func TestCreate_AdminCanBookForAnyClient(t *testing.T) {
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, &mockRoomFinder{}, nil)

	start, end := futureWindow(0, 2)
	err := svc.Create(context.Background(), admin(), &model.Booking{
		RoomID: roomID, ClientID: ownerID, StartTime: start, EndTime: end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreate_RejectsMissingRoom(t *testing.T) {
	rooms := &mockRoomFinder{
		findByIDFunc: func(ctx context.Context, id string) (*model.Room, error) {
			return nil, roomserrors.ErrNotFound
		},
	}
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, rooms, nil)

	start, end := futureWindow(0, 2)
	err := svc.Create(context.Background(), owner(), &model.Booking{RoomID: roomID, StartTime: start, EndTime: end})

	if got := statusOf(t, err); got != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", got)
	}
}

func TestCreate_OverlapScenarios(t *testing.T) {
	tests := []struct {
		name             string
		existingStart    int
		existingEnd      int
		wantErr          bool
	}{
		{name: "identical window", existingStart: 0, existingEnd: 2, wantErr: true},
		{name: "existing contains new", existingStart: -1, existingEnd: 3, wantErr: true},
		{name: "new contains existing", existingStart: 1, existingEnd: 2, wantErr: true},
		{name: "partial overlap", existingStart: 1, existingEnd: 4, wantErr: true},
		{name: "existing ends at new start", existingStart: -3, existingEnd: 0, wantErr: true},
		{name: "existing starts at new end", existingStart: 2, existingEnd: 4, wantErr: true},
		{name: "disjoint before", existingStart: -5, existingEnd: -3},
		{name: "disjoint after", existingStart: 3, existingEnd: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exStart, exEnd := futureWindow(tt.existingStart, tt.existingEnd)
			repo := &mockBookingRepository{
				findOverlappingFunc: func(ctx context.Context, roomID string, start, end time.Time) ([]*model.Booking, error) {
					return []*model.Booking{
						{ID: "65f1f77bcf86cd7994390001", RoomID: roomID, StartTime: exStart, EndTime: exEnd},
					}, nil
				},
			}
			svc := newTestService(repo, &mockLockRepository{}, &mockRoomFinder{}, nil)

			start, end := futureWindow(0, 2)
			err := svc.Create(context.Background(), owner(), &model.Booking{RoomID: roomID, StartTime: start, EndTime: end})

			if tt.wantErr {
				if got := statusOf(t, err); got != http.StatusBadRequest {
					t.Errorf("expected 400, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestCreate_LockContention(t *testing.T) {
	locks := &mockLockRepository{
		createFunc: func(ctx context.Context, lock *model.RoomLock) (*model.RoomLock, error) {
			return nil, mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
		},
	}
	svc := newTestService(&mockBookingRepository{}, locks, &mockRoomFinder{}, nil)

	start, end := futureWindow(0, 2)
	err := svc.Create(context.Background(), owner(), &model.Booking{RoomID: roomID, StartTime: start, EndTime: end})

	if got := statusOf(t, err); got != http.StatusConflict {
		t.Errorf("expected 409, got %d", got)
	}
}

func TestCreate_ReleasesLock(t *testing.T) {
	locks := &mockLockRepository{}
	svc := newTestService(&mockBookingRepository{}, locks, &mockRoomFinder{}, nil)

	start, end := futureWindow(0, 2)
	if err := svc.Create(context.Background(), owner(), &model.Booking{RoomID: roomID, StartTime: start, EndTime: end}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(locks.deleted) != 1 || locks.deleted[0] != "room_"+roomID {
		t.Errorf("expected lock room_%s released, got %v", roomID, locks.deleted)
	}
}

func TestCreate_PublishesEvent(t *testing.T) {
	events := &mockPublisher{}
	svc := newTestService(&mockBookingRepository{}, &mockLockRepository{}, &mockRoomFinder{}, events)

	start, end := futureWindow(0, 2)
	if err := svc.Create(context.Background(), owner(), &model.Booking{RoomID: roomID, StartTime: start, EndTime: end}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(events.published) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events.published))
	}
	msg := events.published[0]
	if msg.Key != roomID {
		t.Errorf("event key = %q, expected room id %q", msg.Key, roomID)
	}
	if msg.Headers[kafka.HeaderEventType] != EventBookingCreated {
		t.Errorf("event type = %q, expected %q", msg.Headers[kafka.HeaderEventType], EventBookingCreated)
	}
}

// --- GetByID / GetAll ---

func TestGetByID_Permissions(t *testing.T) {
	start, end := futureWindow(0, 2)
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{ID: id, RoomID: roomID, ClientID: ownerID, StartTime: start, EndTime: end}, nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockRoomFinder{}, nil)

	if _, err := svc.GetByID(context.Background(), owner(), bookingID); err != nil {
		t.Errorf("owner should read own booking, got %v", err)
	}
	if _, err := svc.GetByID(context.Background(), admin(), bookingID); err != nil {
		t.Errorf("admin should read any booking, got %v", err)
	}

	_, err := svc.GetByID(context.Background(), stranger(), bookingID)
	if got := statusOf(t, err); got != http.StatusForbidden {
		t.Errorf("expected 403 for stranger, got %d", got)
	}

	_, err = svc.GetByID(context.Background(), nil, bookingID)
	if got := statusOf(t, err); got != http.StatusUnauthorized {
		t.Errorf("expected 401 for anonymous, got %d", got)
	}
}

func TestGetAll_ScopesToOwner(t *testing.T) {
	var capturedClient string
	repo := &mockBookingRepository{
		findByClientFunc: func(ctx context.Context, clientID string, limit int, offset int64) ([]*model.Booking, error) {
			capturedClient = clientID
			return []*model.Booking{{ID: bookingID, ClientID: clientID}}, nil
		},
		countByClientFunc: func(ctx context.Context, clientID string) (int64, error) {
			return 1, nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockRoomFinder{}, nil)

	bookings, count, err := svc.GetAll(context.Background(), owner(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capturedClient != ownerID {
		t.Errorf("list scoped to %q, expected %q", capturedClient, ownerID)
	}
	if count != 1 || len(bookings) != 1 {
		t.Errorf("expected 1 booking, got %d (count %d)", len(bookings), count)
	}
}

func TestGetAll_AdminSeesEverything(t *testing.T) {
	allCalled := false
	repo := &mockBookingRepository{
		findAllFunc: func(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
			allCalled = true
			return []*model.Booking{}, nil
		},
		countFunc: func(ctx context.Context) (int64, error) { return 5, nil },
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockRoomFinder{}, nil)

	_, count, err := svc.GetAll(context.Background(), admin(), 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allCalled {
		t.Error("expected admin list to use the unscoped query")
	}
	if count != 5 {
		t.Errorf("count = %d, expected 5", count)
	}
}

// --- Update ---

func TestUpdate_AdminOnly(t *testing.T) {
	start, end := futureWindow(0, 2)
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{ID: id, RoomID: roomID, ClientID: ownerID, StartTime: start, EndTime: end}, nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockRoomFinder{}, nil)

	newEnd := end.Add(-time.Hour)
	err := svc.Update(context.Background(), owner(), bookingID, &model.BookingUpdate{EndTime: &newEnd})
	if got := statusOf(t, err); got != http.StatusForbidden {
		t.Errorf("expected 403 for owner update, got %d", got)
	}

	err = svc.Update(context.Background(), nil, bookingID, &model.BookingUpdate{EndTime: &newEnd})
	if got := statusOf(t, err); got != http.StatusUnauthorized {
		t.Errorf("expected 401 for anonymous update, got %d", got)
	}
}

func TestUpdate_ExcludesOwnBookingFromConflictCheck(t *testing.T) {
	start, end := futureWindow(0, 4)
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{ID: id, RoomID: roomID, ClientID: ownerID, StartTime: start, EndTime: end}, nil
		},
		findOverlappingFunc: func(ctx context.Context, roomID string, s, e time.Time) ([]*model.Booking, error) {
			// The stored window of the booking being updated still overlaps
			// the new window; only its own document comes back.
			return []*model.Booking{
				{ID: bookingID, RoomID: roomID, ClientID: ownerID, StartTime: start, EndTime: end},
			}, nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockRoomFinder{}, nil)

	newEnd := end.Add(-time.Hour)
	if err := svc.Update(context.Background(), admin(), bookingID, &model.BookingUpdate{EndTime: &newEnd}); err != nil {
		t.Fatalf("shrinking own window should succeed, got %v", err)
	}
}

func TestUpdate_RejectsConflictWithOtherBooking(t *testing.T) {
	start, end := futureWindow(0, 2)
	otherStart, otherEnd := futureWindow(2, 4)
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{ID: id, RoomID: roomID, ClientID: ownerID, StartTime: start, EndTime: end}, nil
		},
		findOverlappingFunc: func(ctx context.Context, roomID string, s, e time.Time) ([]*model.Booking, error) {
			return []*model.Booking{
				{ID: "65f1f77bcf86cd7994390002", RoomID: roomID, StartTime: otherStart, EndTime: otherEnd},
			}, nil
		},
	}
	svc := newTestService(repo, &mockLockRepository{}, &mockRoomFinder{}, nil)

	newEnd := end.Add(time.Hour)
	err := svc.Update(context.Background(), admin(), bookingID, &model.BookingUpdate{EndTime: &newEnd})
	if got := statusOf(t, err); got != http.StatusBadRequest {
		t.Errorf("expected 400 for overlapping update, got %d", got)
	}
}

// --- Delete ---

func TestDelete_Permissions(t *testing.T) {
	start, end := futureWindow(0, 2)
	newRepo := func() *mockBookingRepository {
		return &mockBookingRepository{
			findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
				return &model.Booking{ID: id, RoomID: roomID, ClientID: ownerID, StartTime: start, EndTime: end}, nil
			},
		}
	}

	svc := newTestService(newRepo(), &mockLockRepository{}, &mockRoomFinder{}, nil)
	if err := svc.Delete(context.Background(), owner(), bookingID); err != nil {
		t.Errorf("owner should delete own booking, got %v", err)
	}

	svc = newTestService(newRepo(), &mockLockRepository{}, &mockRoomFinder{}, nil)
	if err := svc.Delete(context.Background(), admin(), bookingID); err != nil {
		t.Errorf("admin should delete any booking, got %v", err)
	}

	svc = newTestService(newRepo(), &mockLockRepository{}, &mockRoomFinder{}, nil)
	err := svc.Delete(context.Background(), stranger(), bookingID)
	if got := statusOf(t, err); got != http.StatusForbidden {
		t.Errorf("expected 403 for stranger delete, got %d", got)
	}
}

func TestDelete_PublishesEvent(t *testing.T) {
	start, end := futureWindow(0, 2)
	repo := &mockBookingRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Booking, error) {
			return &model.Booking{ID: id, RoomID: roomID, ClientID: ownerID, StartTime: start, EndTime: end}, nil
		},
	}
	events := &mockPublisher{}
	svc := newTestService(repo, &mockLockRepository{}, &mockRoomFinder{}, events)

	if err := svc.Delete(context.Background(), owner(), bookingID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events.published) != 1 || events.published[0].Headers[kafka.HeaderEventType] != EventBookingDeleted {
		t.Errorf("expected a %s event, got %v", EventBookingDeleted, events.published)
	}
}
