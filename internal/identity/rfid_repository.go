package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// RFIDRepository defines the interface for RFID identity persistence.
type RFIDRepository interface {
	Create(ctx context.Context, id *RFIDIdentity) error
	Get(ctx context.Context, uid string) (*RFIDIdentity, error)
	List(ctx context.Context) ([]RFIDIdentity, error)
	Update(ctx context.Context, uid string, update RFIDUpdate) (*RFIDIdentity, error)
	Delete(ctx context.Context, uid string) error
}

// SQLiteRFIDRepository implements RFIDRepository using SQLite.
type SQLiteRFIDRepository struct {
	db *sql.DB
}

// NewRFIDRepository creates a new SQLite-backed RFID identity repository.
func NewRFIDRepository(db *sql.DB) *SQLiteRFIDRepository {
	return &SQLiteRFIDRepository{db: db}
}

// Create inserts a new RFID identity. The uid is the natural key; a duplicate
// returns ErrRFIDExists.
func (r *SQLiteRFIDRepository) Create(ctx context.Context, id *RFIDIdentity) error {
	if id.UID == "" {
		return fmt.Errorf("%w: uid is required", ErrValidation)
	}
	if id.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}

	if id.CreatedAt.IsZero() {
		id.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rfid_identities (uid, name, active, linked_face_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id.UID, id.Name, boolToInt(id.Active), nullString(id.LinkedFaceID),
		id.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrRFIDExists
		}
		return fmt.Errorf("inserting rfid identity: %w", err)
	}

	return nil
}

// Get retrieves an RFID identity by uid.
func (r *SQLiteRFIDRepository) Get(ctx context.Context, uid string) (*RFIDIdentity, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT uid, name, active, linked_face_id, created_at FROM rfid_identities WHERE uid = ?", uid)
	return scanRFID(row.Scan)
}

// List returns all RFID identities ordered by creation time.
func (r *SQLiteRFIDRepository) List(ctx context.Context) ([]RFIDIdentity, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT uid, name, active, linked_face_id, created_at FROM rfid_identities ORDER BY created_at, uid")
	if err != nil {
		return nil, fmt.Errorf("listing rfid identities: %w", err)
	}
	defer rows.Close()

	var identities []RFIDIdentity
	for rows.Next() {
		id, err := scanRFID(rows.Scan)
		if err != nil {
			return nil, err
		}
		identities = append(identities, *id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rfid identities: %w", err)
	}

	if identities == nil {
		identities = []RFIDIdentity{}
	}
	return identities, nil
}

// Update merges the non-nil fields of update into the stored identity and
// returns the result. Returns ErrRFIDNotFound if the uid is absent.
func (r *SQLiteRFIDRepository) Update(ctx context.Context, uid string, update RFIDUpdate) (*RFIDIdentity, error) {
	current, err := r.Get(ctx, uid)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		if *update.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		current.Name = *update.Name
	}
	if update.Active != nil {
		current.Active = *update.Active
	}
	if update.LinkedFaceID != nil {
		current.LinkedFaceID = *update.LinkedFaceID
	}

	_, err = r.db.ExecContext(ctx,
		"UPDATE rfid_identities SET name = ?, active = ?, linked_face_id = ? WHERE uid = ?",
		current.Name, boolToInt(current.Active), nullString(current.LinkedFaceID), uid)
	if err != nil {
		return nil, fmt.Errorf("updating rfid identity %s: %w", uid, err)
	}

	return current, nil
}

// Delete removes an RFID identity. Returns ErrRFIDNotFound if the uid is absent.
func (r *SQLiteRFIDRepository) Delete(ctx context.Context, uid string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM rfid_identities WHERE uid = ?", uid)
	if err != nil {
		return fmt.Errorf("deleting rfid identity %s: %w", uid, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrRFIDNotFound
	}
	return nil
}

// scanRFID scans one RFID identity row via the given scan function.
func scanRFID(scan func(...any) error) (*RFIDIdentity, error) {
	var id RFIDIdentity
	var active int
	var linkedFaceID sql.NullString
	var createdAt string

	err := scan(&id.UID, &id.Name, &active, &linkedFaceID, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRFIDNotFound
		}
		return nil, fmt.Errorf("scanning rfid identity: %w", err)
	}

	id.Active = active != 0
	if linkedFaceID.Valid {
		id.LinkedFaceID = linkedFaceID.String
	}
	id.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	return &id, nil
}

// nullString converts an empty string to a NULL column value.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// boolToInt converts a bool to the 0/1 representation SQLite stores.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "unique constraint"))
}
