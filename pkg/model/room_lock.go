package model

import "time"

// RoomLock is an advisory lock serializing booking writes per room. It
// closes the read-then-write race of the overlap check: two concurrent
// creations for the same room cannot both validate against a stale
// snapshot. Locks auto-expire via a TTL index on expires_at.
type RoomLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
