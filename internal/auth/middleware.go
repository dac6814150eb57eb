package auth

import (
	"context"
	"net/http"
)

// CookieName is the cookie that carries the session token.
// Set on register/login/edit-profile, deleted on logout.
const CookieName = "jwt_token"

// contextKey is an unexported type used for context keys in this package.
//
// WHY A CUSTOM TYPE FOR CONTEXT KEYS?
// context.WithValue uses any as the key type. If you use a plain string like
// context.WithValue(ctx, "email", email), ANY package that knows the string
// "email" can read or shadow your value. Using a package-private type
// prevents collisions: only THIS package can create a key of type contextKey,
// so only this package can read or write the authenticated email.
type contextKey string

const emailKey contextKey = "email"

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the JWT from the "jwt_token" HttpOnly cookie, validates it, and
// stores the subject email in the request context. If the token is missing
// or invalid, it returns 401 Unauthorized and stops the request chain. The
// 401 body uses the same {status, data, detail} envelope as every other
// response, so clients never need a second error parser.
//
// MIDDLEWARE PATTERN IN GO:
// A middleware is a function that takes an http.Handler and returns a new
// http.Handler. The new handler "wraps" the original:
//
//	func Middleware(next http.Handler) http.Handler {
//	    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	        // ... do stuff before the handler ...
//	        next.ServeHTTP(w, r)
//	        // ... do stuff after the handler ...
//	    })
//	}
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
//
// COOKIE-BASED TOKEN STORAGE:
// We store the JWT in an HttpOnly cookie rather than localStorage or a
// header. HttpOnly means JavaScript cannot read it, which prevents
// XSS (Cross-Site Scripting) attacks from stealing the token.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, err := extractEmail(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"status":"error","data":null,"detail":"Unauthorized"}`))
				return
			}

			// Store the email in context so handlers can read it
			ctx := context.WithValue(r.Context(), emailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// EmailFromContext retrieves the authenticated user's email from the request
// context.
//
// Returns ("", false) if the request is anonymous (no valid token was present).
// Returns (email, true) if the user is authenticated.
//
// Usage in handlers:
//
//	email, ok := auth.EmailFromContext(r.Context())
//	if !ok {
//	    // anonymous user
//	}
func EmailFromContext(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(emailKey).(string)
	return email, ok && email != ""
}

// extractEmail reads the JWT cookie and validates it.
//
// COOKIE FLOW:
// 1. Set-Cookie: jwt_token=<jwt>; HttpOnly; SameSite=Lax (set on login)
// 2. Browser automatically sends Cookie: jwt_token=<jwt> on subsequent requests
// 3. We read r.Cookie("jwt_token") and validate it
func extractEmail(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		// http.ErrNoCookie means the cookie isn't present — the request is anonymous
		return "", err
	}

	return tokens.Validate(cookie.Value)
}
