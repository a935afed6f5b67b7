package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-access/atrium-core/internal/access"
	"github.com/atrium-access/atrium-core/internal/identity"
)

// accessRequest is the shared request body for grant, revoke, and check.
// IdentityType is only consulted on grant, where it is required.
type accessRequest struct {
	RoomID       string `json:"room_id"`
	Identifier   string `json:"identifier"`
	IdentityType string `json:"identity_type,omitempty"`
}

// decodeAccessRequest parses and validates the common access body.
func decodeAccessRequest(w http.ResponseWriter, r *http.Request) (accessRequest, bool) {
	var req accessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return req, false
	}
	if req.RoomID == "" || req.Identifier == "" {
		writeBadRequest(w, "room_id and identifier are required")
		return req, false
	}
	return req, true
}

// handleGrant adds an ACL entry allowing the identifier into the room.
func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAccessRequest(w, r)
	if !ok {
		return
	}

	identityType := identity.Type(req.IdentityType)
	if !identityType.Valid() {
		writeBadRequest(w, "identity_type must be rfid or face")
		return
	}

	grant, err := s.engine.Grant(r.Context(), req.RoomID, req.Identifier, identityType)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, grant)
}

// handleRevoke removes an ACL entry.
func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAccessRequest(w, r)
	if !ok {
		return
	}

	if err := s.engine.Revoke(r.Context(), req.RoomID, req.Identifier); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id":    req.RoomID,
		"identifier": req.Identifier,
		"revoked":    true,
	})
}

// handleCheck reports whether the identifier may enter the room.
// Checks are side-effect free and produce no audit events.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeAccessRequest(w, r)
	if !ok {
		return
	}

	allowed, err := s.engine.Check(r.Context(), req.RoomID, req.Identifier)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"room_id":    req.RoomID,
		"identifier": req.Identifier,
		"has_access": allowed,
	})
}

// handleIdentifierRooms lists the rooms an identifier currently holds
// grants for. An identifier that does not resolve to any directory
// identity is a 404 rather than an empty list.
func (s *Server) handleIdentifierRooms(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")

	rooms, err := s.engine.ListIdentifierRooms(r.Context(), identifier)
	if err != nil {
		if errors.Is(err, access.ErrUnknownIdentity) {
			writeNotFound(w, "identifier not found")
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"identifier": identifier,
		"rooms":      rooms,
		"count":      len(rooms),
	})
}
