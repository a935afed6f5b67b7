package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required)
		r.Get("/health", s.handleHealth)

		// Token exchange (no auth required)
		r.Post("/auth/login", s.handleLogin)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			// WS ticket requires authentication - caller must hold a token to request one
			r.Post("/auth/ws-ticket", s.handleWSTicket)

			// Credential verification (RFID tags, face recognition subjects)
			r.Post("/auth/verify", s.handleVerify)

			// Identity directory
			r.Route("/identities", func(r chi.Router) {
				r.Route("/rfid", func(r chi.Router) {
					r.Get("/", s.handleListRFID)
					r.Post("/", s.handleCreateRFID)

					r.Route("/{uid}", func(r chi.Router) {
						r.Get("/", s.handleGetRFID)
						r.Patch("/", s.handleUpdateRFID)
						r.Delete("/", s.handleDeleteRFID)
					})
				})

				r.Route("/face", func(r chi.Router) {
					r.Get("/", s.handleListFace)
					r.Post("/", s.handleCreateFace)

					r.Route("/{username}", func(r chi.Router) {
						r.Get("/", s.handleGetFace)
						r.Patch("/", s.handleUpdateFace)
						r.Delete("/", s.handleDeleteFace)
						r.Put("/classes/{classID}", s.handleAddFaceClass)
						r.Delete("/classes/{classID}", s.handleRemoveFaceClass)
					})
				})
			})

			// Room registry
			r.Route("/rooms", func(r chi.Router) {
				r.Get("/", s.handleListRooms)
				r.Post("/", s.handleCreateRoom)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.handleGetRoom)
					r.Patch("/", s.handleUpdateRoom)
					r.Delete("/", s.handleDeleteRoom)
					r.Get("/access", s.handleRoomAccess)
					r.Get("/logs", s.handleRoomLogs)
				})
			})

			// Access control operations
			r.Route("/access", func(r chi.Router) {
				r.Post("/grant", s.handleGrant)
				r.Post("/revoke", s.handleRevoke)
				r.Post("/check", s.handleCheck)
				r.Get("/identifiers/{identifier}/rooms", s.handleIdentifierRooms)
			})

			// Audit trail
			r.Get("/logs/access", s.handleRecentLogs)

			// Live notification feed
			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", s.handleListNotifications)
				r.Get("/latest", s.handleLatestNotification)
				r.Post("/clear", s.handleClearNotifications)
			})

			// WebSocket (auth via ticket, validated in handler)
			r.Get("/ws", s.handleWebSocket)
		})
	})

	return r
}

// handleHealth returns the server health status, including whether the
// sensor bus connection is currently up.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	mqttConnected := false
	if s.mqtt != nil {
		mqttConnected = s.mqtt.IsConnected()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"version":        s.version,
		"mqtt_connected": mqttConnected,
	})
}
