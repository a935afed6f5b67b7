package identity

import (
	"context"
	"errors"
	"testing"
)

func TestRFIDRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewRFIDRepository(db)
	ctx := context.Background()

	id := &RFIDIdentity{UID: "E280689401A9", Name: "Alice", Active: true}
	if err := repo.Create(ctx, id); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id.CreatedAt.IsZero() {
		t.Error("Create() should stamp CreatedAt")
	}

	got, err := repo.Get(ctx, "E280689401A9")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Alice" || !got.Active {
		t.Errorf("Get() = %+v, want Alice/active", got)
	}
}

func TestRFIDRepository_DuplicateUID(t *testing.T) {
	db := testDB(t)
	repo := NewRFIDRepository(db)
	ctx := context.Background()

	seedRFID(t, repo, "ABC123", "Alice")

	err := repo.Create(ctx, &RFIDIdentity{UID: "ABC123", Name: "Impostor"})
	if !errors.Is(err, ErrRFIDExists) {
		t.Errorf("Create() duplicate error = %v, want ErrRFIDExists", err)
	}
}

func TestRFIDRepository_CreateValidation(t *testing.T) {
	db := testDB(t)
	repo := NewRFIDRepository(db)
	ctx := context.Background()

	if err := repo.Create(ctx, &RFIDIdentity{Name: "no uid"}); !errors.Is(err, ErrValidation) {
		t.Errorf("Create() without uid error = %v, want ErrValidation", err)
	}
	if err := repo.Create(ctx, &RFIDIdentity{UID: "ABC"}); !errors.Is(err, ErrValidation) {
		t.Errorf("Create() without name error = %v, want ErrValidation", err)
	}
}

func TestRFIDRepository_Update(t *testing.T) {
	db := testDB(t)
	repo := NewRFIDRepository(db)
	ctx := context.Background()

	seedRFID(t, repo, "ABC123", "Alice")

	newName := "Alice Smith"
	inactive := false
	faceID := "alice"
	updated, err := repo.Update(ctx, "ABC123", RFIDUpdate{
		Name:         &newName,
		Active:       &inactive,
		LinkedFaceID: &faceID,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "Alice Smith" || updated.Active || updated.LinkedFaceID != "alice" {
		t.Errorf("Update() = %+v, want merged fields", updated)
	}

	// Partial update leaves other fields untouched
	active := true
	updated, err = repo.Update(ctx, "ABC123", RFIDUpdate{Active: &active})
	if err != nil {
		t.Fatalf("partial Update() error = %v", err)
	}
	if updated.Name != "Alice Smith" || !updated.Active {
		t.Errorf("partial Update() = %+v, want name preserved", updated)
	}
}

func TestRFIDRepository_UpdateMissing(t *testing.T) {
	db := testDB(t)
	repo := NewRFIDRepository(db)

	name := "ghost"
	_, err := repo.Update(context.Background(), "NOPE", RFIDUpdate{Name: &name})
	if !errors.Is(err, ErrRFIDNotFound) {
		t.Errorf("Update() missing error = %v, want ErrRFIDNotFound", err)
	}
}

func TestRFIDRepository_Delete(t *testing.T) {
	db := testDB(t)
	repo := NewRFIDRepository(db)
	ctx := context.Background()

	seedRFID(t, repo, "ABC123", "Alice")

	if err := repo.Delete(ctx, "ABC123"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, "ABC123"); !errors.Is(err, ErrRFIDNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrRFIDNotFound", err)
	}
	if err := repo.Delete(ctx, "ABC123"); !errors.Is(err, ErrRFIDNotFound) {
		t.Errorf("second Delete() error = %v, want ErrRFIDNotFound", err)
	}
}

func TestFaceRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewFaceRepository(db)
	ctx := context.Background()

	id := &FaceIdentity{Username: "bob", Name: "Bob", ClassIDs: []int{3, 1, 3}}
	if err := repo.Create(ctx, id); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := repo.Get(ctx, "bob")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	// Class ids are stored canonically: deduplicated and sorted
	if len(got.ClassIDs) != 2 || got.ClassIDs[0] != 1 || got.ClassIDs[1] != 3 {
		t.Errorf("ClassIDs = %v, want [1 3]", got.ClassIDs)
	}
}

func TestFaceRepository_DuplicateUsername(t *testing.T) {
	db := testDB(t)
	repo := NewFaceRepository(db)

	seedFace(t, repo, "bob", "Bob")

	err := repo.Create(context.Background(), &FaceIdentity{Username: "bob", Name: "Impostor"})
	if !errors.Is(err, ErrFaceExists) {
		t.Errorf("Create() duplicate error = %v, want ErrFaceExists", err)
	}
}

func TestFaceRepository_AddRemoveClass(t *testing.T) {
	db := testDB(t)
	repo := NewFaceRepository(db)
	ctx := context.Background()

	seedFace(t, repo, "bob", "Bob", 1)

	got, err := repo.AddClass(ctx, "bob", 5)
	if err != nil {
		t.Fatalf("AddClass() error = %v", err)
	}
	if !got.HasClass(5) || !got.HasClass(1) {
		t.Errorf("ClassIDs = %v, want [1 5]", got.ClassIDs)
	}

	// Adding an existing class is an idempotent no-op
	got, err = repo.AddClass(ctx, "bob", 5)
	if err != nil {
		t.Fatalf("second AddClass() error = %v", err)
	}
	if len(got.ClassIDs) != 2 {
		t.Errorf("ClassIDs after duplicate add = %v, want 2 entries", got.ClassIDs)
	}

	got, err = repo.RemoveClass(ctx, "bob", 1)
	if err != nil {
		t.Fatalf("RemoveClass() error = %v", err)
	}
	if got.HasClass(1) {
		t.Errorf("ClassIDs = %v, class 1 should be removed", got.ClassIDs)
	}

	// Removing an absent class is an idempotent no-op
	got, err = repo.RemoveClass(ctx, "bob", 99)
	if err != nil {
		t.Fatalf("RemoveClass() absent error = %v", err)
	}
	if len(got.ClassIDs) != 1 {
		t.Errorf("ClassIDs after absent remove = %v, want 1 entry", got.ClassIDs)
	}
}

func TestFaceRepository_ClassOpsMissingUser(t *testing.T) {
	db := testDB(t)
	repo := NewFaceRepository(db)
	ctx := context.Background()

	if _, err := repo.AddClass(ctx, "ghost", 1); !errors.Is(err, ErrFaceNotFound) {
		t.Errorf("AddClass() missing user error = %v, want ErrFaceNotFound", err)
	}
	if _, err := repo.RemoveClass(ctx, "ghost", 1); !errors.Is(err, ErrFaceNotFound) {
		t.Errorf("RemoveClass() missing user error = %v, want ErrFaceNotFound", err)
	}
}

func TestFaceRepository_Delete(t *testing.T) {
	db := testDB(t)
	repo := NewFaceRepository(db)
	ctx := context.Background()

	seedFace(t, repo, "bob", "Bob")

	if err := repo.Delete(ctx, "bob"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, "bob"); !errors.Is(err, ErrFaceNotFound) {
		t.Errorf("second Delete() error = %v, want ErrFaceNotFound", err)
	}
}
