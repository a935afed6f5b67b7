// Package api provides the HTTP REST API and WebSocket server for Atrium Core.
//
// It exposes the identity directory, room registry, access control
// operations, audit log queries, and the live notification feed to
// administrative clients, and relays feed entries to WebSocket
// subscribers in real time.
//
// The server follows the same lifecycle pattern as other infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/atrium-access/atrium-core/internal/access"
	"github.com/atrium-access/atrium-core/internal/audit"
	"github.com/atrium-access/atrium-core/internal/identity"
	"github.com/atrium-access/atrium-core/internal/infrastructure/config"
	"github.com/atrium-access/atrium-core/internal/infrastructure/logging"
	"github.com/atrium-access/atrium-core/internal/infrastructure/mqtt"
	"github.com/atrium-access/atrium-core/internal/notify"
	"github.com/atrium-access/atrium-core/internal/room"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Engine   *access.Engine
	Rooms    room.Repository
	RFID     identity.RFIDRepository
	Face     identity.FaceRepository
	Audit    *audit.Log
	Feed     *notify.Feed
	MQTT     *mqtt.Client // optional; health reports bus connectivity when set
	Version  string
}

// Server is the HTTP API server for Atrium Core.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg     config.APIConfig
	wsCfg   config.WebSocketConfig
	secCfg  config.SecurityConfig
	logger  *logging.Logger
	engine  *access.Engine
	rooms   room.Repository
	rfid    identity.RFIDRepository
	face    identity.FaceRepository
	audit   *audit.Log
	feed    *notify.Feed
	mqtt    *mqtt.Client
	version string
	server  *http.Server
	hub     *Hub
	cancel  context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, engine, repositories)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Engine == nil {
		return nil, fmt.Errorf("access engine is required")
	}
	if deps.Rooms == nil {
		return nil, fmt.Errorf("room repository is required")
	}
	if deps.RFID == nil || deps.Face == nil {
		return nil, fmt.Errorf("identity repositories are required")
	}
	if deps.Audit == nil {
		return nil, fmt.Errorf("audit log is required")
	}
	if deps.Feed == nil {
		return nil, fmt.Errorf("notification feed is required")
	}
	// MQTT is optional — the sensor pipeline runs outside the server, so
	// the API stays functional when the bus is down.

	return &Server{
		cfg:     deps.Config,
		wsCfg:   deps.WS,
		secCfg:  deps.Security,
		logger:  deps.Logger,
		engine:  deps.Engine,
		rooms:   deps.Rooms,
		rfid:    deps.RFID,
		face:    deps.Face,
		audit:   deps.Audit,
		feed:    deps.Feed,
		mqtt:    deps.MQTT,
		version: deps.Version,
	}, nil
}

// Hub returns the server's WebSocket hub, creating it if necessary.
//
// The hub satisfies the ingestion pipeline's Broadcaster interface, so
// the caller can wire it into the pipeline before Start().
func (s *Server) Hub() *Hub {
	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	return s.hub
}

// SetMQTT hands the server the sensor bus client for health reporting.
// This is called after both the API server and the MQTT client are
// created, since they have a startup order dependency.
func (s *Server) SetMQTT(client *mqtt.Client) {
	s.mqtt = client
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the
// HTTP listener in a background goroutine. The server can be stopped
// with Close().
//
// Parameters:
//   - ctx: Context for cancellation (not used for listener lifetime)
//
// Returns:
//   - error: If the server fails to start (port in use, etc.)
func (s *Server) Start(ctx context.Context) error {
	// Create internal context so Close() can stop background goroutines
	// independently of the parent context.
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.Hub().Run(srvCtx)

	// Start periodic ticket cleanup to prevent memory leaks
	go s.cleanTicketsLoop(srvCtx)

	// Build router
	router := s.buildRouter()

	// Create HTTP server
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	// Start listening in background
	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	// Cancel background goroutines (hub, ticket cleanup)
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
