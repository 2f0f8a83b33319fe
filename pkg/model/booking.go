package model

import "time"

type Booking struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	RoomID    string    `json:"room" bson:"room_id" validate:"required,mongodb"`
	ClientID  string    `json:"client" bson:"client_id" validate:"omitempty,mongodb"`
	StartTime time.Time `json:"start_time" bson:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" bson:"end_time" validate:"required,gtfield=StartTime"`
	CreatedAt time.Time `json:"-" bson:"created_at"`
}

type BookingUpdate struct {
	RoomID    string     `json:"room,omitempty" validate:"omitempty,mongodb"`
	ClientID  string     `json:"client,omitempty" validate:"omitempty,mongodb"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}
