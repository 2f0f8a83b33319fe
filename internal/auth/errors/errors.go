package errors

import "errors"

var (
	ErrUserNotFound = errors.New("user not found")

	ErrDuplicateUsername = errors.New("a user with that username already exists")

	ErrTokenNotFound = errors.New("token not found")

	ErrInvalidID = errors.New("invalid user ID format")
)
