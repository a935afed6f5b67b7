package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-access/atrium-core/internal/room"
)

// handleListRooms returns all registered rooms.
func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.rooms.List(r.Context())
	if err != nil {
		writeInternalError(w, "failed to list rooms")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms, "count": len(rooms)})
}

// handleCreateRoom registers a new room. The ID is generated when the
// body omits one.
func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var rm room.Room
	if err := json.NewDecoder(r.Body).Decode(&rm); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if err := s.rooms.Create(r.Context(), &rm); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rm)
}

// handleGetRoom returns a single room by ID.
func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	rm, err := s.rooms.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

// handleUpdateRoom applies a partial update to a room.
func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	var upd room.Update
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	rm, err := s.rooms.Update(r.Context(), chi.URLParam(r, "id"), upd)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm)
}

// handleDeleteRoom removes a room. Grants referencing it are removed by
// the schema's cascade rule.
func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := s.rooms.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRoomAccess lists who currently holds access to a room, with
// each grant resolved against the identity directory.
func (s *Server) handleRoomAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	rm, err := s.rooms.Get(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	grants, err := s.engine.ListRoomAccess(ctx, id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"room_id":   rm.ID,
		"room_name": rm.Name,
		"grants":    grants,
		"count":     len(grants),
	})
}
