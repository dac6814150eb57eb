package handler_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farhan/auth-service/internal/auth"
	"github.com/farhan/auth-service/internal/handler"
	"github.com/farhan/auth-service/internal/repository/sqlite"
	"github.com/farhan/auth-service/internal/service"
)

const testSecret = "test-secret-at-least-16-chars!!"

// envelope mirrors the wire format so tests decode exactly what clients see.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Detail *string         `json:"detail"`
}

type tokenData struct {
	JWTToken  string `json:"jwt_token"`
	TokenType string `json:"token_type"`
}

// newTestRouter wires the real stack — chi router, auth middleware, service,
// in-memory SQLite — exactly like server.setupRoutes. Handler tests exercise
// the same request path a browser would hit.
func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)
	passwords := auth.NewPasswordServiceForTest(4)

	svc := service.NewAuthService(db, tokens, passwords, logger)
	h := handler.NewAuthHandler(svc, logger)

	r := chi.NewRouter()
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.Post("/logout", h.HandleLogout)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Post("/edit-profile", h.HandleEditProfile)
		r.Get("/test-auth", h.HandleTestAuth)
	})
	return r
}

// doJSON performs a request with a JSON body against the router.
func doJSON(t *testing.T, r *chi.Mux, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

// decodeEnvelope parses the uniform response body.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

// sessionCookie pulls the jwt_token cookie out of a response.
func sessionCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	t.Fatal("response has no jwt_token cookie")
	return nil
}

// registerUser registers an account and returns the token payload.
func registerUser(t *testing.T, r *chi.Mux, email, password, username string) (tokenData, *http.Cookie) {
	t.Helper()
	rr := doJSON(t, r, http.MethodPost, "/register",
		`{"email":"`+email+`","password":"`+password+`","username":"`+username+`"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	env := decodeEnvelope(t, rr)
	var td tokenData
	require.NoError(t, json.Unmarshal(env.Data, &td))
	return td, sessionCookie(t, rr)
}

func TestHandleRegister(t *testing.T) {
	t.Run("success issues token and cookie", func(t *testing.T) {
		r := newTestRouter(t)

		rr := doJSON(t, r, http.MethodPost, "/register",
			`{"email":"a@x.com","password":"p1","username":"u1"}`, nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		env := decodeEnvelope(t, rr)
		assert.Equal(t, "success", env.Status)
		assert.Nil(t, env.Detail)

		var td tokenData
		require.NoError(t, json.Unmarshal(env.Data, &td))
		assert.NotEmpty(t, td.JWTToken)
		assert.Equal(t, "jwt_token", td.TokenType)

		cookie := sessionCookie(t, rr)
		assert.Equal(t, td.JWTToken, cookie.Value)
		assert.Equal(t, 3600, cookie.MaxAge)
		assert.True(t, cookie.HttpOnly)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		r := newTestRouter(t)
		registerUser(t, r, "a@x.com", "p1", "u1")

		rr := doJSON(t, r, http.MethodPost, "/register",
			`{"email":"a@x.com","password":"p2","username":"u2"}`, nil)

		assert.Equal(t, http.StatusConflict, rr.Code)
		env := decodeEnvelope(t, rr)
		assert.Equal(t, "error", env.Status)
		require.NotNil(t, env.Detail)
		assert.Equal(t, "User already registered", *env.Detail)
		assert.Equal(t, "null", string(env.Data))
	})

	t.Run("missing fields", func(t *testing.T) {
		r := newTestRouter(t)

		rr := doJSON(t, r, http.MethodPost, "/register",
			`{"email":"a@x.com"}`, nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("malformed JSON", func(t *testing.T) {
		r := newTestRouter(t)

		rr := doJSON(t, r, http.MethodPost, "/register", `{"email":`, nil)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestHandleLogin(t *testing.T) {
	t.Run("correct password returns token with email subject", func(t *testing.T) {
		r := newTestRouter(t)
		registerUser(t, r, "a@x.com", "p1", "u1")

		rr := doJSON(t, r, http.MethodPost, "/login",
			`{"email":"a@x.com","password":"p1"}`, nil)

		assert.Equal(t, http.StatusOK, rr.Code)
		env := decodeEnvelope(t, rr)
		assert.Equal(t, "success", env.Status)

		var td tokenData
		require.NoError(t, json.Unmarshal(env.Data, &td))

		// The token must decode back to the login email
		ts, err := auth.NewTokenService(testSecret)
		require.NoError(t, err)
		subject, err := ts.Validate(td.JWTToken)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", subject)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		r := newTestRouter(t)
		registerUser(t, r, "a@x.com", "p1", "u1")

		rr := doJSON(t, r, http.MethodPost, "/login",
			`{"email":"a@x.com","password":"wrong"}`, nil)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		env := decodeEnvelope(t, rr)
		require.NotNil(t, env.Detail)
		assert.Equal(t, "Invalid credentials", *env.Detail)
	})

	t.Run("unknown email looks identical to wrong password", func(t *testing.T) {
		r := newTestRouter(t)
		registerUser(t, r, "a@x.com", "p1", "u1")

		wrongPass := doJSON(t, r, http.MethodPost, "/login",
			`{"email":"a@x.com","password":"wrong"}`, nil)
		unknown := doJSON(t, r, http.MethodPost, "/login",
			`{"email":"nobody@x.com","password":"wrong"}`, nil)

		assert.Equal(t, http.StatusUnauthorized, unknown.Code)
		assert.Equal(t, wrongPass.Code, unknown.Code)
		assert.JSONEq(t, wrongPass.Body.String(), unknown.Body.String())
	})
}

func TestHandleLogout(t *testing.T) {
	t.Run("clears the cookie", func(t *testing.T) {
		r := newTestRouter(t)
		_, cookie := registerUser(t, r, "a@x.com", "p1", "u1")

		rr := doJSON(t, r, http.MethodPost, "/logout", "", cookie)

		assert.Equal(t, http.StatusOK, rr.Code)
		env := decodeEnvelope(t, rr)
		assert.Equal(t, "success", env.Status)
		assert.Equal(t, "null", string(env.Data))

		cleared := sessionCookie(t, rr)
		assert.Empty(t, cleared.Value)
		assert.Negative(t, cleared.MaxAge)
	})

	t.Run("succeeds without a cookie", func(t *testing.T) {
		r := newTestRouter(t)

		rr := doJSON(t, r, http.MethodPost, "/logout", "", nil)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestHandleTestAuth(t *testing.T) {
	t.Run("valid cookie resolves to the stored user", func(t *testing.T) {
		r := newTestRouter(t)
		_, cookie := registerUser(t, r, "a@x.com", "p1", "u1")

		rr := doJSON(t, r, http.MethodGet, "/test-auth", "", cookie)

		assert.Equal(t, http.StatusOK, rr.Code)
		env := decodeEnvelope(t, rr)
		assert.Equal(t, "success", env.Status)

		var user map[string]string
		require.NoError(t, json.Unmarshal(env.Data, &user))
		assert.NotEmpty(t, user["id"])
		assert.Equal(t, "a@x.com", user["email"])
		assert.Equal(t, "u1", user["username"])
	})

	t.Run("missing cookie is unauthorized", func(t *testing.T) {
		r := newTestRouter(t)

		rr := doJSON(t, r, http.MethodGet, "/test-auth", "", nil)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		env := decodeEnvelope(t, rr)
		assert.Equal(t, "error", env.Status)
		require.NotNil(t, env.Detail)
		assert.Equal(t, "Unauthorized", *env.Detail)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		r := newTestRouter(t)

		bad := &http.Cookie{Name: auth.CookieName, Value: "not.a.jwt"}
		rr := doJSON(t, r, http.MethodGet, "/test-auth", "", bad)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestHandleEditProfile(t *testing.T) {
	t.Run("correct confirmation changes username and refreshes token", func(t *testing.T) {
		r := newTestRouter(t)
		_, cookie := registerUser(t, r, "a@x.com", "p1", "before")

		rr := doJSON(t, r, http.MethodPost, "/edit-profile",
			`{"password":"p1","username":"after"}`, cookie)

		assert.Equal(t, http.StatusOK, rr.Code)
		env := decodeEnvelope(t, rr)
		assert.Equal(t, "success", env.Status)

		var td tokenData
		require.NoError(t, json.Unmarshal(env.Data, &td))
		assert.NotEmpty(t, td.JWTToken)

		// The fresh token carries the same subject
		ts, err := auth.NewTokenService(testSecret)
		require.NoError(t, err)
		subject, err := ts.Validate(td.JWTToken)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", subject)

		// And the identity check now shows the new username
		check := doJSON(t, r, http.MethodGet, "/test-auth", "", sessionCookie(t, rr))
		checkEnv := decodeEnvelope(t, check)
		var user map[string]string
		require.NoError(t, json.Unmarshal(checkEnv.Data, &user))
		assert.Equal(t, "after", user["username"])
	})

	t.Run("wrong confirmation leaves username unchanged", func(t *testing.T) {
		r := newTestRouter(t)
		_, cookie := registerUser(t, r, "a@x.com", "p1", "before")

		rr := doJSON(t, r, http.MethodPost, "/edit-profile",
			`{"password":"wrong","username":"after"}`, cookie)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		env := decodeEnvelope(t, rr)
		require.NotNil(t, env.Detail)
		assert.Equal(t, "Password is incorrect", *env.Detail)

		check := doJSON(t, r, http.MethodGet, "/test-auth", "", cookie)
		checkEnv := decodeEnvelope(t, check)
		var user map[string]string
		require.NoError(t, json.Unmarshal(checkEnv.Data, &user))
		assert.Equal(t, "before", user["username"])
	})

	t.Run("omitted username is rejected without touching the profile", func(t *testing.T) {
		r := newTestRouter(t)
		_, cookie := registerUser(t, r, "a@x.com", "p1", "u1")

		// Correct confirmation password, but no username field — must be a
		// 400, not a silent overwrite with the empty string
		rr := doJSON(t, r, http.MethodPost, "/edit-profile",
			`{"password":"p1"}`, cookie)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		env := decodeEnvelope(t, rr)
		assert.Equal(t, "error", env.Status)

		check := doJSON(t, r, http.MethodGet, "/test-auth", "", cookie)
		checkEnv := decodeEnvelope(t, check)
		var user map[string]string
		require.NoError(t, json.Unmarshal(checkEnv.Data, &user))
		assert.Equal(t, "u1", user["username"])
	})

	t.Run("no session is unauthorized", func(t *testing.T) {
		r := newTestRouter(t)

		rr := doJSON(t, r, http.MethodPost, "/edit-profile",
			`{"password":"p1","username":"after"}`, nil)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

// TestFullScenario walks the register → bad login → good login chain
// end to end.
func TestFullScenario(t *testing.T) {
	r := newTestRouter(t)

	// register a@x.com → 200 with token
	td, _ := registerUser(t, r, "a@x.com", "p1", "u1")
	assert.NotEmpty(t, td.JWTToken)

	// login with wrong password → 401
	rr := doJSON(t, r, http.MethodPost, "/login",
		`{"email":"a@x.com","password":"wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// login with correct password → 200, subject decodes to a@x.com
	rr = doJSON(t, r, http.MethodPost, "/login",
		`{"email":"a@x.com","password":"p1"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	env := decodeEnvelope(t, rr)
	var loginTD tokenData
	require.NoError(t, json.Unmarshal(env.Data, &loginTD))

	ts, err := auth.NewTokenService(testSecret)
	require.NoError(t, err)
	subject, err := ts.Validate(loginTD.JWTToken)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", subject)
}
