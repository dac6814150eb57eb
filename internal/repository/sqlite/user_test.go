package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/farhan/auth-service/internal/apperror"
	"github.com/farhan/auth-service/internal/model"
)

// newTestDB creates an in-memory SQLite database for testing.
// ":memory:" databases are fast and vanish when closed — each test gets
// a fresh, isolated schema.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("New(\":memory:\") error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser is a test helper that creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, email, username string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: "$2a$04$fakehashfortestingonlyfakehashfortestingonly",
	}
	if err := db.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Email:        "test@example.com",
		Username:     "testuser",
		PasswordHash: "$2a$04$somehash",
	}

	err := db.Create(context.Background(), user)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Verify the user was modified in-place (pointer receiver)
	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}
	if user.UpdatedAt.IsZero() {
		t.Error("Create() did not set user.UpdatedAt")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)

	// Same email — second create must fail with a conflict, courtesy of
	// the UNIQUE constraint (no pre-insert existence check involved)
	createTestUser(t, db, "dup@example.com", "firstuser")

	duplicate := &model.User{
		Email:        "dup@example.com", // same address
		Username:     "seconduser",
		PasswordHash: "$2a$04$otherhash",
	}
	err := db.Create(context.Background(), duplicate)
	if err == nil {
		t.Fatal("Create() should have returned an error for duplicate email")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want a conflict error", err)
	}
}

// =========================================================================
// GET BY EMAIL TESTS
// =========================================================================

func TestGetByEmail(t *testing.T) {
	db := newTestDB(t)

	created := createTestUser(t, db, "find@example.com", "findme")

	got, err := db.GetByEmail(context.Background(), "find@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByEmail() ID = %q, want %q", got.ID, created.ID)
	}
	if got.Username != "findme" {
		t.Errorf("GetByEmail() Username = %q, want %q", got.Username, "findme")
	}
	if got.PasswordHash != created.PasswordHash {
		t.Error("GetByEmail() did not return the stored password hash")
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetByEmail(context.Background(), "ghost@example.com")
	if err == nil {
		t.Fatal("GetByEmail() should return an error for an unknown email")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByEmail() error = %v, want a not-found error", err)
	}
}

// =========================================================================
// UPDATE TESTS
// =========================================================================

func TestUserUpdate_ChangesUsername(t *testing.T) {
	db := newTestDB(t)

	user := createTestUser(t, db, "edit@example.com", "before")

	user.Username = "after"
	if err := db.Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.GetByEmail(context.Background(), "edit@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if got.Username != "after" {
		t.Errorf("Username after Update() = %q, want %q", got.Username, "after")
	}
	// Email and hash must be untouched by Update
	if got.Email != "edit@example.com" {
		t.Errorf("Update() changed the email: %q", got.Email)
	}
	if got.PasswordHash != user.PasswordHash {
		t.Error("Update() changed the password hash")
	}
}

func TestUserUpdate_UnknownUser(t *testing.T) {
	db := newTestDB(t)

	ghost := &model.User{
		ID:       "no-such-id",
		Username: "whatever",
	}
	err := db.Update(context.Background(), ghost)
	if err == nil {
		t.Fatal("Update() should return an error for an unknown user ID")
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want a not-found error", err)
	}
}
