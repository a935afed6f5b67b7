package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atrium-access/atrium-core/internal/access"
	"github.com/atrium-access/atrium-core/internal/audit"
	"github.com/atrium-access/atrium-core/internal/identity"
	"github.com/atrium-access/atrium-core/internal/room"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeConflict     = "conflict"
	ErrCodeInternal     = "internal_error"
	ErrCodeValidation   = "validation_error"
	ErrCodeUnavailable  = "service_unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeNotFound writes a 404 error response.
func writeNotFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, ErrCodeNotFound, message)
}

// writeUnauthorized writes a 401 error response.
func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// writeConflict writes a 409 error response.
func writeConflict(w http.ResponseWriter, message string) {
	writeError(w, http.StatusConflict, ErrCodeConflict, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps domain sentinel errors onto HTTP responses.
// Unrecognised errors become 500s without leaking internals.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, room.ErrNotFound),
		errors.Is(err, identity.ErrRFIDNotFound),
		errors.Is(err, identity.ErrFaceNotFound),
		errors.Is(err, access.ErrGrantNotFound):
		writeNotFound(w, err.Error())

	case errors.Is(err, room.ErrExists),
		errors.Is(err, identity.ErrRFIDExists),
		errors.Is(err, identity.ErrFaceExists),
		errors.Is(err, access.ErrGrantExists):
		writeConflict(w, err.Error())

	case errors.Is(err, room.ErrValidation),
		errors.Is(err, identity.ErrValidation),
		errors.Is(err, access.ErrValidation),
		errors.Is(err, access.ErrUnknownIdentity):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())

	case errors.Is(err, access.ErrUnauthorized):
		writeUnauthorized(w, err.Error())

	case errors.Is(err, audit.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())

	default:
		writeInternalError(w, "internal server error")
	}
}
