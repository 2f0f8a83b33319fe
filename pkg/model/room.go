package model

import "time"

type Room struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Number     string    `json:"number" bson:"number" validate:"required,min=1,max=20"`
	CostPerDay Cost      `json:"cost_per_day" bson:"cost_per_day" validate:"min=0,max=9999999"`
	Beds       int       `json:"beds" bson:"beds" validate:"required,min=1"`
	CreatedAt  time.Time `json:"-" bson:"created_at"`
}

type RoomUpdate struct {
	Number     *string `json:"number,omitempty" validate:"omitempty,min=1,max=20"`
	CostPerDay *Cost   `json:"cost_per_day,omitempty" validate:"omitempty,min=0,max=9999999"`
	Beds       *int    `json:"beds,omitempty" validate:"omitempty,min=1"`
}

// RoomFilter holds the query-string filters of the room list endpoint.
// Window is nil when no availability filtering was requested.
type RoomFilter struct {
	Beds       *int
	CostPerDay *Cost
	Window     *TimeWindow
	Ordering   string
}
