package api

import (
	"net/http"

	"github.com/atrium-access/atrium-core/internal/notify"
)

// defaultNotificationLimit is the feed page size when none is requested.
const defaultNotificationLimit = 20

// handleListNotifications returns recent entries from the live feed,
// oldest first.
func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, defaultNotificationLimit)
	entries := s.feed.Recent(limit)
	writeJSON(w, http.StatusOK, map[string]any{"notifications": entries, "count": len(entries)})
}

// handleLatestNotification returns the newest feed entry, or JSON null
// when the feed is empty.
func (s *Server) handleLatestNotification(w http.ResponseWriter, _ *http.Request) {
	entry, ok := s.feed.Latest()
	if !ok {
		// Typed nil pointer encodes as null rather than an empty body.
		writeJSON(w, http.StatusOK, (*notify.Entry)(nil))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// handleClearNotifications empties the live feed. The audit trail is
// unaffected; room_entry events remain queryable under /logs.
func (s *Server) handleClearNotifications(w http.ResponseWriter, _ *http.Request) {
	s.feed.Clear()
	writeJSON(w, http.StatusOK, map[string]any{"cleared": true})
}
