package validator

import (
	"testing"
	"time"

	"roombook/pkg/logger"
	"roombook/pkg/model"
)

const (
	roomID   = "507f1f77bcf86cd799439011"
	clientID = "507f191e810c19729de860ea"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func fixedValidator(now time.Time) *BookingValidator {
	v := NewBookingValidator(testLogger())
	v.now = func() time.Time { return now }
	return v
}

func TestValidate(t *testing.T) {
	now := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)
	v := fixedValidator(now)

	tests := []struct {
		name    string
		booking model.Booking
		wantErr bool
	}{
		{
			name: "valid booking",
			booking: model.Booking{
				RoomID:    roomID,
				ClientID:  clientID,
				StartTime: now.Add(time.Hour),
				EndTime:   now.Add(2 * time.Hour),
			},
		},
		{
			name: "missing room",
			booking: model.Booking{
				ClientID:  clientID,
				StartTime: now.Add(time.Hour),
				EndTime:   now.Add(2 * time.Hour),
			},
			wantErr: true,
		},
		{
			name: "malformed room id",
			booking: model.Booking{
				RoomID:    "not-an-objectid",
				StartTime: now.Add(time.Hour),
				EndTime:   now.Add(2 * time.Hour),
			},
			wantErr: true,
		},
		{
			name: "end before start",
			booking: model.Booking{
				RoomID:    roomID,
				StartTime: now.Add(2 * time.Hour),
				EndTime:   now.Add(time.Hour),
			},
			wantErr: true,
		},
		{
			name: "end equals start",
			booking: model.Booking{
				RoomID:    roomID,
				StartTime: now.Add(time.Hour),
				EndTime:   now.Add(time.Hour),
			},
			wantErr: true,
		},
		{
			name: "start in the past",
			booking: model.Booking{
				RoomID:    roomID,
				StartTime: now.Add(-time.Hour),
				EndTime:   now.Add(time.Hour),
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.booking)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestValidateUpdate(t *testing.T) {
	now := time.Date(2030, 5, 1, 12, 0, 0, 0, time.UTC)
	v := fixedValidator(now)

	start := now.Add(time.Hour)
	end := now.Add(2 * time.Hour)
	badEnd := now.Add(30 * time.Minute)

	tests := []struct {
		name    string
		update  model.BookingUpdate
		wantErr bool
	}{
		{name: "empty update", update: model.BookingUpdate{}},
		{name: "new window", update: model.BookingUpdate{StartTime: &start, EndTime: &end}},
		{name: "only start", update: model.BookingUpdate{StartTime: &start}},
		{name: "end not after start", update: model.BookingUpdate{StartTime: &start, EndTime: &badEnd}, wantErr: true},
		{name: "malformed room id", update: model.BookingUpdate{RoomID: "bogus"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateUpdate(&tt.update)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
