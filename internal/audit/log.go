package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Log is the append-only audit trail backed by SQLite.
//
// Ids are assigned from an in-process counter seeded from the highest
// persisted id, and writes are serialised under a mutex, so ids are
// strictly increasing and timestamps never decrease even when the
// system clock steps backwards.
type Log struct {
	db *sql.DB

	mu     sync.Mutex
	nextID int64
	lastTS time.Time
}

// NewLog creates an audit log over db, seeding the id counter from
// any events already persisted.
func NewLog(ctx context.Context, db *sql.DB) (*Log, error) {
	var maxID sql.NullInt64
	if err := db.QueryRowContext(ctx, "SELECT MAX(id) FROM audit_events").Scan(&maxID); err != nil {
		return nil, fmt.Errorf("seeding audit id counter: %w", err)
	}
	l := &Log{db: db, nextID: 1}
	if maxID.Valid {
		l.nextID = maxID.Int64 + 1
	}
	return l, nil
}

// Append assigns the next id and a timestamp to event and persists it.
// The passed event is updated in place and returned.
func (l *Log) Append(ctx context.Context, event *Event) (*Event, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	// Clamp so timestamps never run backwards across events.
	if now.Before(l.lastTS) {
		now = l.lastTS
	}

	event.ID = l.nextID
	event.Timestamp = now

	var detailsJSON *string
	if event.Details != nil {
		b, err := json.Marshal(event.Details)
		if err != nil {
			return nil, fmt.Errorf("marshalling audit details: %w", err)
		}
		s := string(b)
		detailsJSON = &s
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, action, room_id, subject, identity_type, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.Action,
		nullableString(event.RoomID), event.Subject, nullableString(event.IdentityType),
		detailsJSON, event.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: inserting event: %v", ErrUnavailable, err)
	}

	l.nextID++
	l.lastTS = now
	return event, nil
}

// Recent returns up to limit events, most recent first.
func (l *Log) Recent(ctx context.Context, limit int) ([]Event, error) {
	const query = `SELECT id, action, room_id, subject, identity_type, details, created_at
		FROM audit_events ORDER BY id DESC LIMIT ?`
	return l.query(ctx, query, clampLimit(limit))
}

// ByRoom returns up to limit events for a single room, most recent first.
func (l *Log) ByRoom(ctx context.Context, roomID string, limit int) ([]Event, error) {
	const query = `SELECT id, action, room_id, subject, identity_type, details, created_at
		FROM audit_events WHERE room_id = ? ORDER BY id DESC LIMIT ?`
	return l.query(ctx, query, roomID, clampLimit(limit))
}

func (l *Log) query(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var roomID, identityType, detailsJSON sql.NullString
		var createdAt string

		if err := rows.Scan(&e.ID, &e.Action, &roomID, &e.Subject,
			&identityType, &detailsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		if roomID.Valid {
			e.RoomID = roomID.String
		}
		if identityType.Valid {
			e.IdentityType = identityType.String
		}
		if detailsJSON.Valid && detailsJSON.String != "" {
			var details map[string]any
			if json.Unmarshal([]byte(detailsJSON.String), &details) == nil {
				e.Details = details
			}
		}
		t, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parsing audit timestamp %q: %w", createdAt, err)
		}
		e.Timestamp = t

		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit events: %w", err)
	}
	return events, nil
}

// clampLimit applies the default and maximum page sizes.
func clampLimit(limit int) int {
	if limit <= 0 {
		return 50
	}
	if limit > 200 { //nolint:mnd // max page size for audit queries
		return 200
	}
	return limit
}

// nullableString returns nil for empty strings, used for nullable
// TEXT columns in SQLite.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
