package identity

import (
	"context"
	"database/sql"
	"testing"

	"github.com/atrium-access/atrium-core/internal/infrastructure/database/dbtest"
)

// testDB creates a temporary SQLite database with the real migrations
// applied. The file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	return dbtest.Open(t)
}

// seedRFID inserts an RFID identity for test setup.
func seedRFID(t *testing.T, repo RFIDRepository, uid, name string) *RFIDIdentity {
	t.Helper()

	id := &RFIDIdentity{UID: uid, Name: name, Active: true}
	if err := repo.Create(context.Background(), id); err != nil {
		t.Fatalf("seeding rfid identity %s: %v", uid, err)
	}
	return id
}

// seedFace inserts a face identity for test setup.
func seedFace(t *testing.T, repo FaceRepository, username, name string, classIDs ...int) *FaceIdentity {
	t.Helper()

	id := &FaceIdentity{Username: username, Name: name, ClassIDs: classIDs}
	if err := repo.Create(context.Background(), id); err != nil {
		t.Fatalf("seeding face identity %s: %v", username, err)
	}
	return id
}
