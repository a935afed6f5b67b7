package access

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/atrium-access/atrium-core/internal/audit"
	"github.com/atrium-access/atrium-core/internal/identity"
	"github.com/atrium-access/atrium-core/internal/infrastructure/database/dbtest"
	"github.com/atrium-access/atrium-core/internal/infrastructure/logging"
	"github.com/atrium-access/atrium-core/internal/room"
)

// fixture wires a full engine over a temp-file SQLite database.
type fixture struct {
	engine *Engine
	grants *SQLiteGrantRepository
	rooms  *room.SQLiteRepository
	rfid   *identity.SQLiteRFIDRepository
	face   *identity.SQLiteFaceRepository
	audit  *audit.Log
	db     *sql.DB
}

func newFixture(t *testing.T, requireKnown bool) *fixture {
	t.Helper()

	db := dbtest.Open(t)

	rfid := identity.NewRFIDRepository(db)
	face := identity.NewFaceRepository(db)
	rooms := room.NewSQLiteRepository(db)
	grants := NewSQLiteGrantRepository(db)
	log, err := audit.NewLog(context.Background(), db)
	if err != nil {
		t.Fatalf("creating audit log: %v", err)
	}

	engine := NewEngine(Config{
		Grants:               grants,
		Rooms:                rooms,
		Resolver:             identity.NewResolver(rfid, face),
		Audit:                log,
		Logger:               logging.Default(),
		RequireKnownIdentity: requireKnown,
	})
	return &fixture{engine: engine, grants: grants, rooms: rooms, rfid: rfid, face: face, audit: log, db: db}
}

func (f *fixture) seedRoom(t *testing.T, id string) {
	t.Helper()
	if err := f.rooms.Create(context.Background(), &room.Room{ID: id, Name: id}); err != nil {
		t.Fatalf("seeding room %s: %v", id, err)
	}
}

func (f *fixture) seedRFID(t *testing.T, uid, name string) {
	t.Helper()
	err := f.rfid.Create(context.Background(), &identity.RFIDIdentity{UID: uid, Name: name, Active: true})
	if err != nil {
		t.Fatalf("seeding rfid %s: %v", uid, err)
	}
}

func (f *fixture) auditCount(t *testing.T) int {
	t.Helper()
	var n int
	if err := f.db.QueryRow("SELECT COUNT(*) FROM audit_events").Scan(&n); err != nil {
		t.Fatalf("counting audit events: %v", err)
	}
	return n
}

func (f *fixture) grantCount(t *testing.T, roomID string) int {
	t.Helper()
	var n int
	if err := f.db.QueryRow("SELECT COUNT(*) FROM access_grants WHERE room_id = ?", roomID).Scan(&n); err != nil {
		t.Fatalf("counting grants: %v", err)
	}
	return n
}

func TestEngine_GrantRevokeCheck(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedRoom(t, "room-001")

	g, err := f.engine.Grant(ctx, "room-001", "ABC123", identity.TypeRFID)
	if err != nil {
		t.Fatalf("Grant() error = %v", err)
	}
	if g.GrantedAt.IsZero() {
		t.Error("Grant() should stamp GrantedAt")
	}

	ok, err := f.engine.Check(ctx, "room-001", "ABC123")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !ok {
		t.Error("Check() after grant = false, want true")
	}

	if err := f.engine.Revoke(ctx, "room-001", "ABC123"); err != nil {
		t.Fatalf("Revoke() error = %v", err)
	}
	ok, err = f.engine.Check(ctx, "room-001", "ABC123")
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if ok {
		t.Error("Check() after revoke = true, want false")
	}
}

func TestEngine_GrantMissingRoom(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.engine.Grant(context.Background(), "nope", "ABC123", identity.TypeRFID)
	if !errors.Is(err, room.ErrNotFound) {
		t.Errorf("Grant() missing room error = %v, want room.ErrNotFound", err)
	}
}

func TestEngine_DuplicateGrantConflicts(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedRoom(t, "room-001")

	if _, err := f.engine.Grant(ctx, "room-001", "ABC123", identity.TypeRFID); err != nil {
		t.Fatalf("first Grant() error = %v", err)
	}

	_, err := f.engine.Grant(ctx, "room-001", "ABC123", identity.TypeRFID)
	if !errors.Is(err, ErrGrantExists) {
		t.Errorf("second Grant() error = %v, want ErrGrantExists", err)
	}
	if n := f.grantCount(t, "room-001"); n != 1 {
		t.Errorf("grant count after duplicate = %d, want 1", n)
	}
}

func TestEngine_RevokeMissingAppendsNoAudit(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	before := f.auditCount(t)
	err := f.engine.Revoke(ctx, "room-001", "ABC123")
	if !errors.Is(err, ErrGrantNotFound) {
		t.Fatalf("Revoke() missing error = %v, want ErrGrantNotFound", err)
	}
	if after := f.auditCount(t); after != before {
		t.Errorf("audit count changed %d -> %d on failed revoke", before, after)
	}
}

func TestEngine_CheckIsSideEffectFree(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedRoom(t, "room-001")

	if _, err := f.engine.Grant(ctx, "room-001", "ABC123", identity.TypeRFID); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}

	before := f.auditCount(t)
	for i := 0; i < 5; i++ {
		if _, err := f.engine.Check(ctx, "room-001", "ABC123"); err != nil {
			t.Fatalf("Check() error = %v", err)
		}
	}
	if after := f.auditCount(t); after != before {
		t.Errorf("Check() appended audit events: %d -> %d", before, after)
	}
	if n := f.grantCount(t, "room-001"); n != 1 {
		t.Errorf("Check() altered grants: count = %d, want 1", n)
	}
}

func TestEngine_AuditOrdering(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedRoom(t, "room-001")

	for _, id := range []string{"A", "B", "C"} {
		if _, err := f.engine.Grant(ctx, "room-001", id, identity.TypeRFID); err != nil {
			t.Fatalf("Grant(%s) error = %v", id, err)
		}
	}

	events, err := f.audit.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Recent() returned %d events, want 3", len(events))
	}
	// Most-recent-first: ids descend, timestamps never increase.
	for i := 1; i < len(events); i++ {
		if events[i].ID >= events[i-1].ID {
			t.Errorf("event ids not strictly decreasing: %d then %d", events[i-1].ID, events[i].ID)
		}
		if events[i].Timestamp.After(events[i-1].Timestamp) {
			t.Errorf("timestamps out of order: %v then %v", events[i-1].Timestamp, events[i].Timestamp)
		}
	}
}

func TestEngine_ListRoomAccessSkipsUnresolvable(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedRoom(t, "room-001")
	f.seedRFID(t, "ABC123", "Alice")

	if _, err := f.engine.Grant(ctx, "room-001", "ABC123", identity.TypeRFID); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}
	// Grant for an identifier with no directory entry.
	if _, err := f.engine.Grant(ctx, "room-001", "GHOST", identity.TypeRFID); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}

	resolved, err := f.engine.ListRoomAccess(ctx, "room-001")
	if err != nil {
		t.Fatalf("ListRoomAccess() error = %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("ListRoomAccess() returned %d entries, want 1", len(resolved))
	}
	if resolved[0].Name != "Alice" || resolved[0].Grant.Identifier != "ABC123" {
		t.Errorf("ListRoomAccess()[0] = %+v, want Alice/ABC123", resolved[0])
	}
}

func TestEngine_ListRoomAccessMissingRoom(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.engine.ListRoomAccess(context.Background(), "nope")
	if !errors.Is(err, room.ErrNotFound) {
		t.Errorf("ListRoomAccess() missing room error = %v, want room.ErrNotFound", err)
	}
}

func TestEngine_RequireKnownIdentity(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	f.seedRoom(t, "room-001")
	f.seedRFID(t, "ABC123", "Alice")

	if _, err := f.engine.Grant(ctx, "room-001", "ABC123", identity.TypeRFID); err != nil {
		t.Fatalf("Grant() known identity error = %v", err)
	}

	_, err := f.engine.Grant(ctx, "room-001", "GHOST", identity.TypeRFID)
	if !errors.Is(err, ErrUnknownIdentity) {
		t.Errorf("Grant() unknown identity error = %v, want ErrUnknownIdentity", err)
	}
}

func TestEngine_AuthenticateSuccess(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedRFID(t, "ABC123", "Alice")

	res, err := f.engine.Authenticate(ctx, "UID:ABC123", "")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if res.DisplayName() != "Alice" {
		t.Errorf("Authenticate() resolved %q, want Alice", res.DisplayName())
	}

	events, err := f.audit.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if events[0].Action != audit.ActionAuthSuccess || events[0].Subject != "Alice" {
		t.Errorf("audit event = %+v, want auth_success/Alice", events[0])
	}
}

func TestEngine_AuthenticateFailureLogsReason(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.engine.Authenticate(ctx, "UID:NOPE", "")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("Authenticate() error = %v, want ErrUnauthorized", err)
	}

	events, err := f.audit.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	e := events[0]
	if e.Action != audit.ActionAuthFailed {
		t.Errorf("action = %q, want auth_failed", e.Action)
	}
	if e.Subject != "NOPE" {
		t.Errorf("subject = %q, want stripped uid NOPE", e.Subject)
	}
	if e.Details["reason"] != identity.ReasonRFIDUnknown {
		t.Errorf("details reason = %v, want %q", e.Details["reason"], identity.ReasonRFIDUnknown)
	}
}

func TestEngine_AuthenticateConstrainedSource(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	// A face identity only; constraining auth to rfid must fail.
	err := f.face.Create(ctx, &identity.FaceIdentity{Username: "bob", Name: "Bob"})
	if err != nil {
		t.Fatalf("seeding face: %v", err)
	}

	if _, err := f.engine.Authenticate(ctx, "bob", identity.TypeRFID); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Authenticate(rfid constraint) error = %v, want ErrUnauthorized", err)
	}
	if _, err := f.engine.Authenticate(ctx, "bob", identity.TypeFace); err != nil {
		t.Errorf("Authenticate(face constraint) error = %v, want success", err)
	}
}

func TestEngine_RoomDeleteRemovesGrants(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedRoom(t, "room-1")
	f.seedRFID(t, "04A1B2C3", "Frank")

	if _, err := f.engine.Grant(ctx, "room-1", "04A1B2C3", identity.TypeRFID); err != nil {
		t.Fatalf("Grant() error = %v", err)
	}

	if err := f.rooms.Delete(ctx, "room-1"); err != nil {
		t.Fatalf("Delete() of granted room error = %v", err)
	}

	if n := f.grantCount(t, "room-1"); n != 0 {
		t.Errorf("grants after room delete = %d, want 0", n)
	}
	if ok, err := f.engine.Check(ctx, "room-1", "04A1B2C3"); err != nil || ok {
		t.Errorf("Check() after room delete = (%v, %v), want (false, nil)", ok, err)
	}
}

func TestEngine_ListIdentifierRooms(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedRoom(t, "room-001")
	f.seedRoom(t, "room-002")
	f.seedRoom(t, "room-003")
	f.seedRFID(t, "ABC123", "Alice")

	for _, id := range []string{"room-001", "room-002"} {
		if _, err := f.engine.Grant(ctx, id, "ABC123", identity.TypeRFID); err != nil {
			t.Fatalf("Grant(%s) error = %v", id, err)
		}
	}

	rooms, err := f.engine.ListIdentifierRooms(ctx, "ABC123")
	if err != nil {
		t.Fatalf("ListIdentifierRooms() error = %v", err)
	}
	if len(rooms) != 2 {
		t.Fatalf("ListIdentifierRooms() returned %d rooms, want 2", len(rooms))
	}
	if rooms[0].ID != "room-001" || rooms[1].ID != "room-002" {
		t.Errorf("ListIdentifierRooms() = %s, %s; want room-001, room-002", rooms[0].ID, rooms[1].ID)
	}
}

func TestEngine_ListIdentifierRoomsUnknown(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.engine.ListIdentifierRooms(context.Background(), "GHOST")
	if !errors.Is(err, ErrUnknownIdentity) {
		t.Errorf("ListIdentifierRooms() unknown error = %v, want ErrUnknownIdentity", err)
	}
}

func TestEngine_ListIdentifierRoomsSkipsDeletedRoom(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.seedRoom(t, "room-001")
	f.seedRoom(t, "room-002")
	f.seedRFID(t, "ABC123", "Alice")

	for _, id := range []string{"room-001", "room-002"} {
		if _, err := f.engine.Grant(ctx, id, "ABC123", identity.TypeRFID); err != nil {
			t.Fatalf("Grant(%s) error = %v", id, err)
		}
	}
	// Delete the room row without cascading, leaving the grant dangling.
	if _, err := f.db.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		t.Fatalf("disabling foreign keys: %v", err)
	}
	if _, err := f.db.Exec("DELETE FROM rooms WHERE id = ?", "room-002"); err != nil {
		t.Fatalf("deleting room row: %v", err)
	}
	if _, err := f.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("re-enabling foreign keys: %v", err)
	}

	rooms, err := f.engine.ListIdentifierRooms(ctx, "ABC123")
	if err != nil {
		t.Fatalf("ListIdentifierRooms() error = %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != "room-001" {
		t.Errorf("ListIdentifierRooms() = %+v, want just room-001", rooms)
	}
}
