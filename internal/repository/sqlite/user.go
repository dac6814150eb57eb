package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/farhan/auth-service/internal/apperror"
	"github.com/farhan/auth-service/internal/model"
	"github.com/farhan/auth-service/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Create inserts a new user row, generating the ID and timestamps.
//
// CLOSING THE REGISTRATION RACE:
// We do NOT check "does this email exist?" before inserting. That pattern
// has a race: two concurrent registrations for the same email could both
// pass the check and both insert. Instead we just INSERT and let the UNIQUE
// constraint on email arbitrate — exactly one writer wins, the other gets a
// constraint violation that we translate into a conflict error.
func (db *DB) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, username, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("User already registered")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	return nil
}

// GetByEmail retrieves a user by their email (the login identifier).
// Returns an error wrapping apperror.ErrNotFound if no such user exists.
func (db *DB) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, username, password_hash, created_at, updated_at
		 FROM users WHERE email = ?`,
		email,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user not found")
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}

	return &u, nil
}

// Update persists the mutable profile fields (username) for an existing user.
// Email, password hash, and ID are immutable through this method.
func (db *DB) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET username = ?, updated_at = ? WHERE id = ?`,
		user.Username,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	// RowsAffected tells us whether the WHERE clause matched anything.
	// Zero rows means the user vanished between lookup and update.
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: rows affected for user %s: %w", user.ID, err)
	}
	if n == 0 {
		return apperror.NotFound("user not found")
	}

	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// violation. modernc.org/sqlite surfaces these as
// "constraint failed: UNIQUE constraint failed: users.email (2067)",
// so matching on the message is the portable check.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
