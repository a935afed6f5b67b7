package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Default page sizes for audit queries, matching the log's own clamping.
const (
	defaultRecentLogLimit = 50
	defaultRoomLogLimit   = 20
)

// handleRecentLogs returns the most recent audit events across all rooms.
func (s *Server) handleRecentLogs(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, defaultRecentLogLimit)

	events, err := s.audit.Recent(r.Context(), limit)
	if err != nil {
		writeInternalError(w, "failed to query audit log")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events, "count": len(events)})
}

// handleRoomLogs returns the most recent audit events for one room.
func (s *Server) handleRoomLogs(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	limit := parseLimit(r, defaultRoomLogLimit)

	events, err := s.audit.ByRoom(r.Context(), id, limit)
	if err != nil {
		writeInternalError(w, "failed to query audit log")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"room_id": id, "events": events, "count": len(events)})
}

// parseLimit reads the limit query parameter, falling back when absent
// or malformed. Upper bounds are enforced by the audit log itself.
func parseLimit(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return fallback
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return fallback
	}
	return limit
}
