package identity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"
)

// FaceRepository defines the interface for face identity persistence.
type FaceRepository interface {
	Create(ctx context.Context, id *FaceIdentity) error
	Get(ctx context.Context, username string) (*FaceIdentity, error)
	List(ctx context.Context) ([]FaceIdentity, error)
	Update(ctx context.Context, username string, update FaceUpdate) (*FaceIdentity, error)
	AddClass(ctx context.Context, username string, classID int) (*FaceIdentity, error)
	RemoveClass(ctx context.Context, username string, classID int) (*FaceIdentity, error)
	Delete(ctx context.Context, username string) error
}

// SQLiteFaceRepository implements FaceRepository using SQLite.
// Class memberships are stored as a JSON array in a single column.
type SQLiteFaceRepository struct {
	db *sql.DB
}

// NewFaceRepository creates a new SQLite-backed face identity repository.
func NewFaceRepository(db *sql.DB) *SQLiteFaceRepository {
	return &SQLiteFaceRepository{db: db}
}

// Create inserts a new face identity. The username is the natural key; a
// duplicate returns ErrFaceExists.
func (r *SQLiteFaceRepository) Create(ctx context.Context, id *FaceIdentity) error {
	if id.Username == "" {
		return fmt.Errorf("%w: username is required", ErrValidation)
	}
	if id.Name == "" {
		return fmt.Errorf("%w: name is required", ErrValidation)
	}

	if id.CreatedAt.IsZero() {
		id.CreatedAt = time.Now().UTC()
	}
	id.ClassIDs = normalizeClassIDs(id.ClassIDs)

	classJSON, err := json.Marshal(id.ClassIDs)
	if err != nil {
		return fmt.Errorf("marshalling class ids: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO face_identities (username, name, class_ids, created_at)
		 VALUES (?, ?, ?, ?)`,
		id.Username, id.Name, string(classJSON), id.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrFaceExists
		}
		return fmt.Errorf("inserting face identity: %w", err)
	}

	return nil
}

// Get retrieves a face identity by username.
func (r *SQLiteFaceRepository) Get(ctx context.Context, username string) (*FaceIdentity, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT username, name, class_ids, created_at FROM face_identities WHERE username = ?", username)
	return scanFace(row.Scan)
}

// List returns all face identities ordered by creation time.
func (r *SQLiteFaceRepository) List(ctx context.Context) ([]FaceIdentity, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT username, name, class_ids, created_at FROM face_identities ORDER BY created_at, username")
	if err != nil {
		return nil, fmt.Errorf("listing face identities: %w", err)
	}
	defer rows.Close()

	var identities []FaceIdentity
	for rows.Next() {
		id, err := scanFace(rows.Scan)
		if err != nil {
			return nil, err
		}
		identities = append(identities, *id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating face identities: %w", err)
	}

	if identities == nil {
		identities = []FaceIdentity{}
	}
	return identities, nil
}

// Update merges the non-nil fields of update into the stored identity and
// returns the result. Returns ErrFaceNotFound if the username is absent.
func (r *SQLiteFaceRepository) Update(ctx context.Context, username string, update FaceUpdate) (*FaceIdentity, error) {
	current, err := r.Get(ctx, username)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		if *update.Name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		current.Name = *update.Name
	}

	_, err = r.db.ExecContext(ctx,
		"UPDATE face_identities SET name = ? WHERE username = ?",
		current.Name, username)
	if err != nil {
		return nil, fmt.Errorf("updating face identity %s: %w", username, err)
	}

	return current, nil
}

// AddClass adds a class membership. Adding a class the identity already has
// is an idempotent no-op. Returns ErrFaceNotFound if the username is absent.
func (r *SQLiteFaceRepository) AddClass(ctx context.Context, username string, classID int) (*FaceIdentity, error) {
	return r.mutateClasses(ctx, username, func(classIDs []int) []int {
		for _, id := range classIDs {
			if id == classID {
				return classIDs
			}
		}
		return append(classIDs, classID)
	})
}

// RemoveClass removes a class membership. Removing an absent class is an
// idempotent no-op. Returns ErrFaceNotFound if the username is absent.
func (r *SQLiteFaceRepository) RemoveClass(ctx context.Context, username string, classID int) (*FaceIdentity, error) {
	return r.mutateClasses(ctx, username, func(classIDs []int) []int {
		out := classIDs[:0]
		for _, id := range classIDs {
			if id != classID {
				out = append(out, id)
			}
		}
		return out
	})
}

// mutateClasses applies fn to the identity's class set inside a transaction
// so concurrent class mutations cannot lose updates.
func (r *SQLiteFaceRepository) mutateClasses(ctx context.Context, username string, fn func([]int) []int) (*FaceIdentity, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is no-op after commit

	row := tx.QueryRowContext(ctx,
		"SELECT username, name, class_ids, created_at FROM face_identities WHERE username = ?", username)
	current, err := scanFace(row.Scan)
	if err != nil {
		return nil, err
	}

	current.ClassIDs = normalizeClassIDs(fn(current.ClassIDs))

	classJSON, err := json.Marshal(current.ClassIDs)
	if err != nil {
		return nil, fmt.Errorf("marshalling class ids: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE face_identities SET class_ids = ? WHERE username = ?",
		string(classJSON), username); err != nil {
		return nil, fmt.Errorf("updating class ids for %s: %w", username, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing class update: %w", err)
	}
	return current, nil
}

// Delete removes a face identity. Returns ErrFaceNotFound if the username is absent.
func (r *SQLiteFaceRepository) Delete(ctx context.Context, username string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM face_identities WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("deleting face identity %s: %w", username, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return ErrFaceNotFound
	}
	return nil
}

// scanFace scans one face identity row via the given scan function.
func scanFace(scan func(...any) error) (*FaceIdentity, error) {
	var id FaceIdentity
	var classJSON string
	var createdAt string

	err := scan(&id.Username, &id.Name, &classJSON, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrFaceNotFound
		}
		return nil, fmt.Errorf("scanning face identity: %w", err)
	}

	if err := json.Unmarshal([]byte(classJSON), &id.ClassIDs); err != nil {
		return nil, fmt.Errorf("parsing class ids for %s: %w", id.Username, err)
	}
	if id.ClassIDs == nil {
		id.ClassIDs = []int{}
	}
	id.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	return &id, nil
}

// normalizeClassIDs deduplicates and sorts a class id list.
// Stored class sets are canonical so set semantics hold across updates.
func normalizeClassIDs(classIDs []int) []int {
	seen := make(map[int]struct{}, len(classIDs))
	out := make([]int, 0, len(classIDs))
	for _, id := range classIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}
