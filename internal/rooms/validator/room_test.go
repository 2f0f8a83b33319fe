package validator

import (
	"net/url"
	"testing"
	"time"

	"roombook/pkg/logger"
	"roombook/pkg/model"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
}

func TestValidate(t *testing.T) {
	v := NewRoomValidator(testLogger())

	tests := []struct {
		name    string
		room    model.Room
		wantErr bool
	}{
		{name: "valid room", room: model.Room{Number: "101", CostPerDay: 15000, Beds: 2}},
		{name: "free room", room: model.Room{Number: "102", CostPerDay: 0, Beds: 1}},
		{name: "missing number", room: model.Room{CostPerDay: 15000, Beds: 2}, wantErr: true},
		{name: "zero beds", room: model.Room{Number: "101", CostPerDay: 15000}, wantErr: true},
		{name: "number too long", room: model.Room{Number: "123456789012345678901", Beds: 1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(&tt.room)
			if tt.wantErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}

func TestParseFilter_Window(t *testing.T) {
	v := NewRoomValidator(testLogger())

	query := url.Values{}
	query.Set("start_time", "30-05-29_09:10:01")
	query.Set("end_time", "30-05-29_18:00:00")

	filter, err := v.ParseFilter(query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.Window == nil {
		t.Fatal("expected window to be set")
	}

	wantStart := time.Date(2030, 5, 29, 9, 10, 1, 0, time.UTC)
	if !filter.Window.Start.Equal(wantStart) {
		t.Errorf("start = %v, expected %v", filter.Window.Start, wantStart)
	}
	wantEnd := time.Date(2030, 5, 29, 18, 0, 0, 0, time.UTC)
	if !filter.Window.End.Equal(wantEnd) {
		t.Errorf("end = %v, expected %v", filter.Window.End, wantEnd)
	}
}

func TestParseFilter_Errors(t *testing.T) {
	v := NewRoomValidator(testLogger())

	tests := []struct {
		name  string
		query url.Values
	}{
		{name: "malformed start_time", query: url.Values{"start_time": {"2030-05-29T09:10:01Z"}, "end_time": {"30-05-29_18:00:00"}}},
		{name: "malformed end_time", query: url.Values{"start_time": {"30-05-29_09:10:01"}, "end_time": {"nope"}}},
		{name: "lone start_time", query: url.Values{"start_time": {"30-05-29_09:10:01"}}},
		{name: "lone end_time", query: url.Values{"end_time": {"30-05-29_18:00:00"}}},
		{name: "end before start", query: url.Values{"start_time": {"30-05-29_18:00:00"}, "end_time": {"30-05-29_09:00:00"}}},
		{name: "bad beds", query: url.Values{"beds": {"two"}}},
		{name: "negative beds", query: url.Values{"beds": {"-1"}}},
		{name: "bad cost", query: url.Values{"cost_per_day": {"1.005"}}},
		{name: "unknown ordering field", query: url.Values{"ordering": {"color"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.ParseFilter(tt.query); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestParseFilter_Fields(t *testing.T) {
	v := NewRoomValidator(testLogger())

	query := url.Values{}
	query.Set("beds", "2")
	query.Set("cost_per_day", "150.00")
	query.Set("ordering", "-cost_per_day")

	filter, err := v.ParseFilter(query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.Beds == nil || *filter.Beds != 2 {
		t.Errorf("beds filter = %v, expected 2", filter.Beds)
	}
	if filter.CostPerDay == nil || *filter.CostPerDay != 15000 {
		t.Errorf("cost filter = %v, expected 15000", filter.CostPerDay)
	}
	if filter.Ordering != "-cost_per_day" {
		t.Errorf("ordering = %q, expected -cost_per_day", filter.Ordering)
	}
	if filter.Window != nil {
		t.Error("expected no window")
	}
}

func TestParseFilter_Empty(t *testing.T) {
	v := NewRoomValidator(testLogger())

	filter, err := v.ParseFilter(url.Values{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if filter.Beds != nil || filter.CostPerDay != nil || filter.Window != nil || filter.Ordering != "" {
		t.Errorf("expected empty filter, got %+v", filter)
	}
}
