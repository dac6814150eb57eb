// Package auth — password hashing.
//
// Passwords are stored as bcrypt hashes, never as plaintext and never with a
// fast general-purpose hash (MD5/SHA-256 are GPU-crackable in bulk). bcrypt
// is deliberately slow, salts every hash itself, and embeds the salt and the
// work factor in its output string, so a single TEXT column holds everything
// verification needs:
//
//	$2a$12$<22-char salt><31-char hash>
//	    ^^
//	    cost: 2^12 hashing rounds
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor used for real registrations.
// Cost 12 lands around a quarter second per hash on current server
// hardware — slow enough to make offline cracking expensive, fast enough
// that login latency stays unnoticeable. Revisit if hardware changes
// move that balance.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// The cost lives in a struct field rather than a package constant so tests
// can dial it down: every register/login test pays the hashing price, and
// at cost 12 a suite of them would crawl.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the production cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// newPasswordServiceWithCost is used by the tests in this package.
func newPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest creates a PasswordService with a reduced bcrypt
// cost (4 is the library minimum) for tests in other packages. Never use
// this in production wiring.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt. The returned string
// is self-contained (salt and cost included) and goes straight into the
// password_hash column.
//
// Plaintexts over 72 bytes are rejected: bcrypt would silently truncate
// them, which means "mypassword<72 bytes of noise>" and "mypassword<other
// noise>" would verify as the same password.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks a plaintext password against a stored bcrypt hash. It
// returns nil on a match and an error otherwise; callers treat any error as
// "wrong password" and decide the HTTP status themselves.
//
// The comparison inside bcrypt is constant-time, so response timing does not
// reveal how much of the password was correct.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
