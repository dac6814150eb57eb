package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/farhan/auth-service/internal/apperror"
	"github.com/farhan/auth-service/internal/auth"
	"github.com/farhan/auth-service/internal/service"
)

// AuthHandler exposes the authentication endpoints.
//
// HANDLER RESPONSIBILITIES:
//   - HandleRegister    → create an account, issue the first session token
//   - HandleLogin       → verify credentials, issue a session token
//   - HandleLogout      → clear the session cookie
//   - HandleEditProfile → change the username (current password required)
//   - HandleTestAuth    → return the authenticated user's identity
//
// Handlers only decode input, call the service, and shape the response.
// All business rules (hashing, verification, error kinds) live in
// service.AuthService.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(authService *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		logger: logger,
	}
}

// registerRequest is the body of POST /register.
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Username string `json:"username"`
}

// loginRequest is the body of POST /login.
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// editProfileRequest is the body of POST /edit-profile.
// Password is the CURRENT password, re-confirmed before any change is made.
type editProfileRequest struct {
	Password string `json:"password"`
	Username string `json:"username"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /register
// BODY: {"email": "...", "password": "...", "username": "..."}
//
// Responses:
//   - 200 {jwt_token, token_type} + session cookie
//   - 400 missing fields or malformed JSON
//   - 409 email already registered
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("register: invalid JSON", slog.String("error", err.Error()))
		writeError(w, h.logger, apperror.BadRequest("Invalid JSON body"))
		return
	}

	if req.Email == "" || req.Password == "" || req.Username == "" {
		writeError(w, h.logger, apperror.BadRequest("email, password and username are required"))
		return
	}

	result, err := h.auth.Register(r.Context(), req.Email, req.Password, req.Username)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.respondWithToken(w, result.Token)
}

// HandleLogin verifies credentials and starts a session.
//
// HTTP: POST /login
// BODY: {"email": "...", "password": "..."}
//
// Responses:
//   - 200 {jwt_token, token_type} + session cookie
//   - 401 unknown email OR wrong password (indistinguishable on purpose)
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("login: invalid JSON", slog.String("error", err.Error()))
		writeError(w, h.logger, apperror.BadRequest("Invalid JSON body"))
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.respondWithToken(w, result.Token)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /logout
//
// Always succeeds, even without a cookie — there is nothing server-side to
// invalidate. Since sessions are stateless JWTs, "logout" just means telling
// the browser to delete the cookie. The token itself remains technically
// valid until its 1-hour expiry; with a TTL this short we accept that rather
// than maintain a revocation list.
//
// WHY POST AND NOT GET?
// Logout is a state-changing operation (from the client's point of view).
// Using GET would be vulnerable to CSRF and to browsers pre-fetching the URL.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	clearSessionCookie(w)
	writeSuccess(w, h.logger, nil)
}

// HandleEditProfile changes the authenticated user's username.
//
// HTTP: POST /edit-profile
// Auth: required (RequireAuth middleware sets the email in context)
// BODY: {"password": "<current password>", "username": "<new name>"}
//
// Responses:
//   - 200 {jwt_token, token_type} + refreshed session cookie
//   - 400 wrong confirmation password (username untouched)
//   - 401 no valid session
//
// The fresh token carries the same subject — it exists only to restart the
// expiry clock alongside the updated profile.
func (h *AuthHandler) HandleEditProfile(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		// Should never happen on a RequireAuth-protected route, but be safe.
		writeError(w, h.logger, apperror.Unauthorized("Unauthorized"))
		return
	}

	var req editProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("edit-profile: invalid JSON", slog.String("error", err.Error()))
		writeError(w, h.logger, apperror.BadRequest("Invalid JSON body"))
		return
	}

	// Both fields are required. Without this check, a body that omits
	// username would pass the confirmation step and blank out the stored
	// display name.
	if req.Password == "" || req.Username == "" {
		writeError(w, h.logger, apperror.BadRequest("password and username are required"))
		return
	}

	result, err := h.auth.EditProfile(r.Context(), email, req.Password, req.Username)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	h.respondWithToken(w, result.Token)
}

// HandleTestAuth returns the authenticated user's identity.
//
// HTTP: GET /test-auth
// Auth: required (cookie)
//
// This is the "who am I" check: a client presents its cookie and gets back
// the {id, email, username} the token resolves to. Useful for the frontend
// to restore login state on page load, and for smoke-testing the auth chain.
func (h *AuthHandler) HandleTestAuth(w http.ResponseWriter, r *http.Request) {
	email, ok := auth.EmailFromContext(r.Context())
	if !ok {
		writeError(w, h.logger, apperror.Unauthorized("Unauthorized"))
		return
	}

	user, err := h.auth.GetUserByEmail(r.Context(), email)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeSuccess(w, h.logger, map[string]string{
		"id":       user.ID,
		"email":    user.Email,
		"username": user.Username,
	})
}

// respondWithToken sets the session cookie and writes the token payload.
// Shared by register, login, and edit-profile — all three end a successful
// request the same way.
func (h *AuthHandler) respondWithToken(w http.ResponseWriter, token string) {
	setSessionCookie(w, token)
	writeSuccess(w, h.logger, tokenPayload{
		JWTToken:  token,
		TokenType: "jwt_token",
	})
}

// setSessionCookie attaches the JWT as an HttpOnly cookie.
//
// HttpOnly = JavaScript cannot read this cookie (XSS protection).
// SameSite=Lax = cookie is sent on top-level navigations but not cross-site POSTs.
// MaxAge matches the token TTL (3600s) so browser and server expire together.
// Secure should be true in production (HTTPS only). We leave it false for local dev.
func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(auth.TokenTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // Uncomment in production (requires HTTPS)
	})
}

// clearSessionCookie instructs the browser to delete the session cookie.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // tells the browser to delete the cookie immediately
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
