// Package dbtest opens throwaway SQLite databases for tests, with the
// real embedded migrations applied. Package fixtures use it instead of
// hand-writing schema DDL, so a test database can never drift from what
// a deployment actually runs.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/atrium-access/atrium-core/internal/infrastructure/database"
	_ "github.com/atrium-access/atrium-core/migrations" // registers the embedded migration FS
)

// Open creates a temp-file database, runs the embedded migrations, and
// returns the connection. The file and connection are cleaned up when
// the test finishes. Fails the test on any error.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(context.Background(), database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db.DB
}
