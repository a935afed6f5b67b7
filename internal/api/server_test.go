package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/atrium-access/atrium-core/internal/access"
	"github.com/atrium-access/atrium-core/internal/audit"
	"github.com/atrium-access/atrium-core/internal/identity"
	"github.com/atrium-access/atrium-core/internal/infrastructure/config"
	"github.com/atrium-access/atrium-core/internal/infrastructure/database/dbtest"
	"github.com/atrium-access/atrium-core/internal/infrastructure/logging"
	"github.com/atrium-access/atrium-core/internal/notify"
	"github.com/atrium-access/atrium-core/internal/room"
)

const testAdminKey = "test-admin-key"

// testEnv bundles a server with direct handles on its collaborators so
// tests can seed state without going through HTTP.
type testEnv struct {
	srv    *Server
	router http.Handler
	rooms  *room.SQLiteRepository
	rfid   *identity.SQLiteRFIDRepository
	face   *identity.SQLiteFaceRepository
	engine *access.Engine
	feed   *notify.Feed
	audit  *audit.Log
	token  string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := dbtest.Open(t)

	rfid := identity.NewRFIDRepository(db)
	face := identity.NewFaceRepository(db)
	rooms := room.NewSQLiteRepository(db)
	grants := access.NewSQLiteGrantRepository(db)
	log, err := audit.NewLog(context.Background(), db)
	if err != nil {
		t.Fatalf("creating audit log: %v", err)
	}

	engine := access.NewEngine(access.Config{
		Grants:   grants,
		Rooms:    rooms,
		Resolver: identity.NewResolver(rfid, face),
		Audit:    log,
		Logger:   logging.Default(),
	})
	feed := notify.NewFeed(config.DefaultFeedCapacity)

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{
				Secret:         "test-secret-key-at-least-32-characters-long",
				AccessTokenTTL: 15,
			},
			AdminKey: testAdminKey,
		},
		Logger:  logging.Default(),
		Engine:  engine,
		Rooms:   rooms,
		RFID:    rfid,
		Face:    face,
		Audit:   log,
		Feed:    feed,
		Version: "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	go srv.Hub().Run(context.Background())
	router := srv.buildRouter()

	env := &testEnv{
		srv:    srv,
		router: router,
		rooms:  rooms,
		rfid:   rfid,
		face:   face,
		engine: engine,
		feed:   feed,
		audit:  log,
	}
	env.token = env.login(t)
	return env
}

// login exchanges the test admin key for a bearer token.
func (e *testEnv) login(t *testing.T) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/v1/auth/login", `{"admin_key":"`+testAdminKey+`"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d; body: %s", w.Code, w.Body.String())
	}

	var resp loginResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal login response: %v", err)
	}
	return resp.AccessToken
}

// do performs a request against the router, attaching the bearer token
// when one is given.
func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// authed performs an authenticated request with the env's admin token.
func (e *testEnv) authed(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do(t, method, path, body, e.token)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/health", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want %d", w.Code, http.StatusOK)
	}

	resp := decodeBody(t, w)
	if resp["status"] != "ok" {
		t.Errorf("status = %v, want ok", resp["status"])
	}
	if resp["version"] != "test" {
		t.Errorf("version = %v, want test", resp["version"])
	}
	if resp["mqtt_connected"] != false {
		t.Errorf("mqtt_connected = %v, want false without a bus client", resp["mqtt_connected"])
	}
}

func TestRequestID_Generated(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/health", "", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestRequestID_PreservesClient(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "client-123" {
		t.Errorf("X-Request-ID = %q, want %q", got, "client-123")
	}
}

func TestCORS_Preflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("ACAO = %q, want %q", got, "http://localhost:3000")
	}
}

func TestLogin_InvalidKey(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/auth/login", `{"admin_key":"wrong"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuth_RejectsMissingToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/rooms", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuth_RejectsGarbageToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/rooms", "", "not-a-jwt")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestAuth_AcceptsIssuedToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.authed(t, http.MethodGet, "/api/v1/rooms", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d; body: %s", w.Code, http.StatusOK, w.Body.String())
	}
}

func TestWSTicket_SingleUse(t *testing.T) {
	env := newTestEnv(t)

	w := env.authed(t, http.MethodPost, "/api/v1/auth/ws-ticket", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	resp := decodeBody(t, w)
	ticket, ok := resp["ticket"].(string)
	if !ok || ticket == "" {
		t.Fatal("expected ticket to be a non-empty string")
	}

	if !validateTicket(ticket) {
		t.Error("ticket should be valid on first use")
	}
	if validateTicket(ticket) {
		t.Error("ticket should not be valid on second use")
	}
}

func TestWSTicket_Expiry(t *testing.T) {
	ticket := generateTicket()
	wsTickets.mu.Lock()
	wsTickets.tickets[ticket] = ticketEntry{
		expiresAt: time.Now().Add(-1 * time.Second),
	}
	wsTickets.mu.Unlock()

	if validateTicket(ticket) {
		t.Error("expired ticket should not be valid")
	}
}

func TestWebSocket_NoTicketRejected(t *testing.T) {
	env := newTestEnv(t)

	w := env.authed(t, http.MethodGet, "/api/v1/ws", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestHub_BroadcastEntryToSubscribed(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}, logging.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: map[string]struct{}{ChannelEntry: {}},
	}
	hub.Register(client)

	hub.Broadcast(notify.Entry{ID: 7, Subject: "alice", Message: "Entry detected: alice"})

	select {
	case msg := <-client.send:
		var wsMsg WSMessage
		if err := json.Unmarshal(msg, &wsMsg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if wsMsg.Type != WSTypeEvent {
			t.Errorf("type = %q, want %q", wsMsg.Type, WSTypeEvent)
		}
		if wsMsg.EventType != ChannelEntry {
			t.Errorf("event_type = %q, want %q", wsMsg.EventType, ChannelEntry)
		}
	case <-time.After(time.Second):
		t.Error("timed out waiting for broadcast message")
	}
}

func TestHub_NoMessageForUnsubscribed(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}, logging.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
	hub.Register(client)

	hub.Broadcast(notify.Entry{ID: 1, Subject: "bob"})

	select {
	case <-client.send:
		t.Error("unsubscribed client should not receive message")
	case <-time.After(100 * time.Millisecond):
		// OK — no message received
	}
}

func TestHub_ClientCount(t *testing.T) {
	hub := NewHub(config.WebSocketConfig{MaxMessageSize: 8192, PingInterval: 30, PongTimeout: 10}, logging.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	if hub.ClientCount() != 0 {
		t.Errorf("initial client count = %d, want 0", hub.ClientCount())
	}

	client := &WSClient{
		hub:           hub,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
	hub.Register(client)

	if hub.ClientCount() != 1 {
		t.Errorf("after register count = %d, want 1", hub.ClientCount())
	}

	hub.Unregister(client)

	if hub.ClientCount() != 0 {
		t.Errorf("after unregister count = %d, want 0", hub.ClientCount())
	}
}
