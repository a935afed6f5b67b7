package identity

import "errors"

var (
	// ErrRFIDNotFound is returned when no RFID identity exists for a uid.
	ErrRFIDNotFound = errors.New("rfid identity not found")

	// ErrRFIDExists is returned when creating an RFID identity whose uid is taken.
	ErrRFIDExists = errors.New("rfid identity already exists")

	// ErrFaceNotFound is returned when no face identity exists for a username.
	ErrFaceNotFound = errors.New("face identity not found")

	// ErrFaceExists is returned when creating a face identity whose username is taken.
	ErrFaceExists = errors.New("face identity already exists")

	// ErrValidation is returned when a required identity field is missing or malformed.
	ErrValidation = errors.New("invalid identity")
)
