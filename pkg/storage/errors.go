package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when no user with the given name exists.
	ErrNotFound = errors.New("user not found")

	// ErrConflict is returned when a user with the given name already exists.
	ErrConflict = errors.New("user already exists")
)
