// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Email is the login identifier and is UNIQUE in the database — two accounts
// can never share an address. Username is purely a display name and is the
// only field a user can change after registration.
//
// WHY `json:"-"` ON PasswordHash?
// The hash must never leave the server. Tagging it with "-" means
// encoding/json skips the field entirely, so even if a handler accidentally
// serializes a whole User, the hash cannot leak into a response body.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`    // login identifier, unique
	Username     string    `json:"username"  db:"username"` // display name, editable
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
