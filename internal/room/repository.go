package room

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for room persistence operations.
type Repository interface {
	Create(ctx context.Context, rm *Room) error
	Get(ctx context.Context, id string) (*Room, error)
	List(ctx context.Context) ([]Room, error)
	Update(ctx context.Context, id string, upd Update) (*Room, error)
	Delete(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed room repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new room. When rm.ID is empty a short unique
// identifier is generated and written back to rm.
func (r *SQLiteRepository) Create(ctx context.Context, rm *Room) error {
	if strings.TrimSpace(rm.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}
	if rm.Capacity < 0 {
		return fmt.Errorf("%w: capacity must not be negative", ErrValidation)
	}
	if rm.ID == "" {
		rm.ID = "room-" + uuid.NewString()[:8]
	}
	if rm.CreatedAt.IsZero() {
		rm.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO rooms (id, name, location, capacity, owner_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		rm.ID, rm.Name, rm.Location, rm.Capacity, nullStr(rm.OwnerID),
		rm.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrExists, rm.ID)
		}
		return fmt.Errorf("inserting room %s: %w", rm.ID, err)
	}
	return nil
}

// Get returns a single room by ID.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Room, error) {
	const query = `SELECT id, name, location, capacity, owner_id, created_at
		FROM rooms WHERE id = ?`
	rm, err := scanRoom(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning room %s: %w", id, err)
	}
	return rm, nil
}

// List returns all rooms ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Room, error) {
	const query = `SELECT id, name, location, capacity, owner_id, created_at
		FROM rooms ORDER BY name, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	var rooms []Room
	for rows.Next() {
		rm, err := scanRoom(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		rooms = append(rooms, *rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating room rows: %w", err)
	}
	return rooms, nil
}

// Update applies the non-nil fields of upd to an existing room and
// returns the merged record.
func (r *SQLiteRepository) Update(ctx context.Context, id string, upd Update) (*Room, error) {
	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		if strings.TrimSpace(*upd.Name) == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		current.Name = *upd.Name
	}
	if upd.Location != nil {
		current.Location = *upd.Location
	}
	if upd.Capacity != nil {
		if *upd.Capacity < 0 {
			return nil, fmt.Errorf("%w: capacity must not be negative", ErrValidation)
		}
		current.Capacity = *upd.Capacity
	}
	if upd.OwnerID != nil {
		current.OwnerID = *upd.OwnerID
	}

	const query = `UPDATE rooms SET name = ?, location = ?, capacity = ?, owner_id = ?
		WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query,
		current.Name, current.Location, current.Capacity, nullStr(current.OwnerID), id)
	if err != nil {
		return nil, fmt.Errorf("updating room %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return nil, ErrNotFound
	}
	return current, nil
}

// Delete removes a single room by ID. Access grants referencing the
// room are removed by the ON DELETE CASCADE foreign key.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting room %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanRoom scans a room using the given scan function, shared between
// QueryRow and Rows cursors.
func scanRoom(scan func(...any) error) (*Room, error) {
	var rm Room
	var ownerID sql.NullString
	var createdAt string

	if err := scan(&rm.ID, &rm.Name, &rm.Location, &rm.Capacity, &ownerID, &createdAt); err != nil {
		return nil, err
	}
	if ownerID.Valid {
		rm.OwnerID = ownerID.String
	}
	rm.CreatedAt = parseTime(createdAt)
	return &rm, nil
}

// nullStr converts an empty string to a NULL column value.
func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// parseTime parses an ISO 8601 timestamp from SQLite.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05Z", s)
		if err != nil {
			return time.Time{}
		}
	}
	return t
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint error.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
