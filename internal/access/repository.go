package access

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/atrium-access/atrium-core/internal/identity"
)

// GrantRepository defines the interface for ACL persistence.
type GrantRepository interface {
	Insert(ctx context.Context, g *Grant) error
	Delete(ctx context.Context, roomID, identifier string) error
	Exists(ctx context.Context, roomID, identifier string) (bool, error)
	ListByRoom(ctx context.Context, roomID string) ([]Grant, error)
	ListByIdentifier(ctx context.Context, identifier string) ([]Grant, error)
}

// SQLiteGrantRepository implements GrantRepository using SQLite.
//
// Uniqueness of (room_id, identifier) is enforced by the table's
// composite primary key, so Insert on an existing pair fails with
// ErrGrantExists without a prior read.
type SQLiteGrantRepository struct {
	db *sql.DB
}

// NewSQLiteGrantRepository creates a new SQLite-backed grant repository.
func NewSQLiteGrantRepository(db *sql.DB) *SQLiteGrantRepository {
	return &SQLiteGrantRepository{db: db}
}

// Insert persists a new grant. GrantedAt is stamped if zero.
func (r *SQLiteGrantRepository) Insert(ctx context.Context, g *Grant) error {
	if g.GrantedAt.IsZero() {
		g.GrantedAt = time.Now().UTC()
	}
	const query = `INSERT INTO access_grants (room_id, identifier, identity_type, granted_at)
		VALUES (?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		g.RoomID, g.Identifier, string(g.IdentityType), g.GrantedAt.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s/%s", ErrGrantExists, g.RoomID, g.Identifier)
		}
		return fmt.Errorf("inserting grant %s/%s: %w", g.RoomID, g.Identifier, err)
	}
	return nil
}

// Delete removes a grant, returning ErrGrantNotFound if absent.
func (r *SQLiteGrantRepository) Delete(ctx context.Context, roomID, identifier string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM access_grants WHERE room_id = ? AND identifier = ?", roomID, identifier)
	if err != nil {
		return fmt.Errorf("deleting grant %s/%s: %w", roomID, identifier, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrGrantNotFound
	}
	return nil
}

// Exists reports whether a grant for (roomID, identifier) is present.
func (r *SQLiteGrantRepository) Exists(ctx context.Context, roomID, identifier string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM access_grants WHERE room_id = ? AND identifier = ?", roomID, identifier).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking grant %s/%s: %w", roomID, identifier, err)
	}
	return true, nil
}

// ListByRoom returns all grants for a room ordered by grant time.
func (r *SQLiteGrantRepository) ListByRoom(ctx context.Context, roomID string) ([]Grant, error) {
	const query = `SELECT room_id, identifier, identity_type, granted_at
		FROM access_grants WHERE room_id = ? ORDER BY granted_at, identifier`
	rows, err := r.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("querying grants for room %s: %w", roomID, err)
	}
	return collectGrants(rows)
}

// ListByIdentifier returns all grants held by an identifier across
// rooms, ordered by grant time.
func (r *SQLiteGrantRepository) ListByIdentifier(ctx context.Context, identifier string) ([]Grant, error) {
	const query = `SELECT room_id, identifier, identity_type, granted_at
		FROM access_grants WHERE identifier = ? ORDER BY granted_at, room_id`
	rows, err := r.db.QueryContext(ctx, query, identifier)
	if err != nil {
		return nil, fmt.Errorf("querying grants for identifier %s: %w", identifier, err)
	}
	return collectGrants(rows)
}

// collectGrants drains and closes a grant cursor.
func collectGrants(rows *sql.Rows) ([]Grant, error) {
	defer rows.Close()

	var grants []Grant
	for rows.Next() {
		var g Grant
		var identityType, grantedAt string
		if err := rows.Scan(&g.RoomID, &g.Identifier, &identityType, &grantedAt); err != nil {
			return nil, fmt.Errorf("scanning grant row: %w", err)
		}
		g.IdentityType = identity.Type(identityType)
		t, err := time.Parse(time.RFC3339, grantedAt)
		if err != nil {
			return nil, fmt.Errorf("parsing grant timestamp %q: %w", grantedAt, err)
		}
		g.GrantedAt = t
		grants = append(grants, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating grant rows: %w", err)
	}
	return grants, nil
}
