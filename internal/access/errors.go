package access

import "errors"

var (
	// ErrGrantExists indicates a grant for (room, identifier) already exists.
	ErrGrantExists = errors.New("grant already exists")

	// ErrGrantNotFound indicates no grant exists for (room, identifier).
	ErrGrantNotFound = errors.New("grant not found")

	// ErrUnauthorized indicates an authentication attempt that did not
	// resolve to a known identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrUnknownIdentity indicates a grant was refused because the
	// identifier does not resolve and the engine requires known
	// identities.
	ErrUnknownIdentity = errors.New("identifier does not match a known identity")

	// ErrValidation indicates a malformed grant request.
	ErrValidation = errors.New("access validation failed")
)
