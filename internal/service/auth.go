// Package service — authentication business logic.
//
// AuthService is the business logic layer for authentication. It sits between
// the HTTP handlers and the repository/auth utilities:
//
//	AuthHandler (HTTP) → AuthService (business rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT) + PasswordService (bcrypt)
//
// KEY RESPONSIBILITIES:
//   - Orchestrate register/login/edit-profile: hash passwords, verify
//     credentials, issue session tokens
//   - Decide which error KIND each failure maps to (conflict, unauthorized,
//     bad request) — handlers translate kinds to HTTP statuses
//   - Be easily testable with a fake repository
//
// WHAT THIS LAYER DOES NOT DO:
//   - It does NOT set cookies (that's the handler's job — HTTP concern)
//   - It does NOT read HTTP requests
//   - It is NOT tied to Chi or any routing framework
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/farhan/auth-service/internal/apperror"
	"github.com/farhan/auth-service/internal/auth"
	"github.com/farhan/auth-service/internal/model"
	"github.com/farhan/auth-service/internal/repository"
)

// AuthService handles the authentication business logic.
//
// DEPENDENCIES (injected via NewAuthService):
//   - users      repository.UserRepository  → read/write user records
//   - tokens     *auth.TokenService         → generate/validate JWTs
//   - passwords  *auth.PasswordService      → bcrypt hashing/verification
//   - logger     *slog.Logger               → structured logging
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// Call this in server.go when wiring the dependency graph.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult is returned by authentication operations.
// It bundles the user record and the issued JWT together so the caller
// (the HTTP handler) can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new account and issues its first session token.
//
// The password is hashed with bcrypt before it ever reaches the repository —
// the plaintext is never stored or logged. A duplicate email surfaces from
// the store's UNIQUE constraint as a conflict error (409 at the HTTP layer);
// there is no separate existence check, so concurrent registrations for the
// same address cannot both succeed.
func (s *AuthService) Register(ctx context.Context, email, password, username string) (*AuthResult, error) {
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	}

	// The repository fills in ID, CreatedAt, and UpdatedAt.
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// Pass the conflict through untouched — the handler maps it to 409
			return nil, err
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	token, err := s.tokens.Generate(user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %s: %w", user.Email, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login verifies credentials and issues a session token.
//
// NO ACCOUNT ENUMERATION:
// An unknown email and a wrong password both return the same unauthorized
// error with the same message. A caller can never learn from a login
// response whether an address is registered.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("Invalid credentials")
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("Invalid credentials")
	}

	s.logger.Info("user logged in",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	token, err := s.tokens.Generate(user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %s: %w", user.Email, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// EditProfile changes the username of the authenticated user.
//
// The caller must re-confirm their CURRENT password — this is a guard
// against a hijacked session silently rewriting the profile. The
// confirmation failure is a bad-request error (400), distinct from the
// unauthorized error (401) used when no valid session exists at all.
//
// On success a fresh token is issued. The identity inside the token is
// unchanged (the subject is still the email); the new token only restarts
// the 1-hour expiry clock.
func (s *AuthService) EditProfile(ctx context.Context, email, currentPassword, newUsername string) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Token subject no longer resolves to an account
			return nil, apperror.Unauthorized("Unauthorized")
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, currentPassword); err != nil {
		return nil, apperror.BadRequest("Password is incorrect")
	}

	user.Username = newUsername
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: updating user %s: %w", user.ID, err)
	}

	s.logger.Info("profile updated",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	token, err := s.tokens.Generate(user.Email)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for %s: %w", user.Email, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByEmail returns the user for the given email.
//
// Used by the /test-auth handler to look up the full user record after the
// middleware validates the JWT and extracts the email from the token's
// Subject claim. A token whose subject no longer resolves to an account is
// treated as unauthorized, not as a server error.
func (s *AuthService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if email == "" {
		return nil, apperror.Unauthorized("Unauthorized")
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("Unauthorized")
		}
		return nil, fmt.Errorf("service/auth: fetching user: %w", err)
	}

	return user, nil
}
