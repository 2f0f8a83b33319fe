package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseCost(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Cost
		wantErr  bool
	}{
		{name: "whole amount", input: "100", expected: 10000},
		{name: "one decimal", input: "100.5", expected: 10050},
		{name: "two decimals", input: "100.50", expected: 10050},
		{name: "zero", input: "0", expected: 0},
		{name: "cents only", input: "0.99", expected: 99},
		{name: "leading dot", input: ".50", expected: 50},
		{name: "three decimals rejected", input: "100.505", wantErr: true},
		{name: "negative rejected", input: "-10", wantErr: true},
		{name: "empty rejected", input: "", wantErr: true},
		{name: "garbage rejected", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCost(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseCost(%q) expected error, got %v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCost(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("ParseCost(%q) = %d, expected %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCost_String(t *testing.T) {
	tests := []struct {
		cost     Cost
		expected string
	}{
		{cost: 10000, expected: "100.00"},
		{cost: 10050, expected: "100.50"},
		{cost: 99, expected: "0.99"},
		{cost: 5, expected: "0.05"},
		{cost: 0, expected: "0.00"},
	}

	for _, tt := range tests {
		if got := tt.cost.String(); got != tt.expected {
			t.Errorf("Cost(%d).String() = %q, expected %q", tt.cost, got, tt.expected)
		}
	}
}

func TestCost_JSON(t *testing.T) {
	var room Room

	// String input
	if err := json.Unmarshal([]byte(`{"number":"101","cost_per_day":"150.00","beds":2}`), &room); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if room.CostPerDay != 15000 {
		t.Errorf("expected 15000 cents, got %d", room.CostPerDay)
	}

	// Bare number input
	if err := json.Unmarshal([]byte(`{"number":"101","cost_per_day":150,"beds":2}`), &room); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if room.CostPerDay != 15000 {
		t.Errorf("expected 15000 cents, got %d", room.CostPerDay)
	}

	// Output is always a two-decimal string
	data, err := json.Marshal(Room{Number: "101", CostPerDay: 15000, Beds: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := `"cost_per_day":"150.00"`; !strings.Contains(string(data), want) {
		t.Errorf("expected %s in %s", want, data)
	}
}
