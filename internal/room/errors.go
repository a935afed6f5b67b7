package room

import "errors"

var (
	// ErrNotFound indicates the requested room does not exist.
	ErrNotFound = errors.New("room not found")

	// ErrExists indicates a room with the same ID already exists.
	ErrExists = errors.New("room already exists")

	// ErrValidation indicates the room payload failed validation.
	ErrValidation = errors.New("room validation failed")
)
