package model

import "time"

type User struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty"`
	Username     string    `json:"username" bson:"username" validate:"required,min=1,max=150"`
	PasswordHash []byte    `json:"-" bson:"password_hash"`
	IsSuperuser  bool      `json:"is_superuser" bson:"is_superuser"`
	CreatedAt    time.Time `json:"-" bson:"created_at"`
}

// Principal is the authenticated identity attached to a request. Core
// operations take it as an explicit argument; there is no ambient
// current-user state anywhere.
type Principal struct {
	UserID      string
	Username    string
	IsSuperuser bool
}

// Token is an opaque login token. Key doubles as the document id.
type Token struct {
	Key       string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}
