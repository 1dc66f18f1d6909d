package handlers_test

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/isdelr/auth-api/internal/api"
	"github.com/isdelr/auth-api/internal/api/handlers"
	"github.com/isdelr/auth-api/internal/auth"
	"github.com/isdelr/auth-api/internal/config"
	"github.com/isdelr/auth-api/internal/database"
	"github.com/isdelr/auth-api/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router *chi.Mux
	issuer *auth.Issuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.Config{
		ServerPort:          8080,
		JWTSecret:           "test-secret",
		JWTExpire:           time.Hour,
		JWTCookieExpireDays: 7,
		CORSAllowedOrigins:  []string{"http://localhost:3000"},
		AppEnv:              "development",
	}

	issuer := auth.NewIssuer(cfg)
	userService := services.NewUserService(db)
	return &testServer{
		router: api.NewRouter(cfg, issuer, userService),
		issuer: issuer,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func tokenCookie(t *testing.T, rr *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rr.Result().Cookies() {
		if c.Name == auth.CookieName {
			return c
		}
	}
	return nil
}

func TestRegisterLoginScenario(t *testing.T) {
	srv := newTestServer(t)

	// Register
	rr := srv.do(t, http.MethodPost, "/api/auth/register",
		`{"email": "a@b.com", "password": "secret1"}`, nil)
	require.Equal(t, http.StatusCreated, rr.Code)

	var reg handlers.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &reg))
	assert.True(t, reg.Success)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "a@b.com", reg.Data.Email)
	assert.NotEmpty(t, reg.Data.ID)

	// The password must not leak anywhere in the response body.
	assert.NotContains(t, rr.Body.String(), "password")
	assert.NotContains(t, rr.Body.String(), "secret1")
	assert.NotContains(t, rr.Body.String(), "$2a$")

	cookie := tokenCookie(t, rr)
	require.NotNil(t, cookie, "register must set the session cookie")
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure, "cookie is only Secure in production")
	assert.Equal(t, reg.Token, cookie.Value)

	// Token subject is the new user's ID.
	claims, err := srv.issuer.Validate(reg.Token)
	require.NoError(t, err)
	assert.Equal(t, reg.Data.ID, claims.Subject)

	// Re-register the same email
	rr = srv.do(t, http.MethodPost, "/api/auth/register",
		`{"email": "A@B.com", "password": "another1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "already exists")

	// Login with the wrong password
	rr = srv.do(t, http.MethodPost, "/api/auth/login",
		`{"email": "a@b.com", "password": "wrong"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Login with a nonexistent email looks identical.
	rr2 := srv.do(t, http.MethodPost, "/api/auth/login",
		`{"email": "ghost@b.com", "password": "wrong"}`, nil)
	assert.Equal(t, rr.Code, rr2.Code)
	assert.Equal(t, rr.Body.String(), rr2.Body.String())

	// Login with the correct password
	rr = srv.do(t, http.MethodPost, "/api/auth/login",
		`{"email": "a@b.com", "password": "secret1"}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	var login handlers.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &login))
	assert.True(t, login.Success)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, reg.Data.ID, login.Data.ID)
	require.NotNil(t, tokenCookie(t, rr))

	// The issued token works against the protected route.
	rr = srv.do(t, http.MethodGet, "/api/auth/me", "",
		map[string]string{"Authorization": "Bearer " + login.Token})
	require.Equal(t, http.StatusOK, rr.Code)
	var me handlers.MeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &me))
	assert.Equal(t, "a@b.com", me.Data.Email)

	// No token, no access.
	rr = srv.do(t, http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRegister_BadInput(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"email": `},
		{name: "missing email", body: `{"password": "secret1"}`},
		{name: "missing password", body: `{"email": "a@b.com"}`},
		{name: "malformed email", body: `{"email": "nope", "password": "secret1"}`},
		{name: "short password", body: `{"email": "a@b.com", "password": "12345"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := srv.do(t, http.MethodPost, "/api/auth/register", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
			assert.Contains(t, rr.Body.String(), `"success":false`)
		})
	}
}

func TestLogin_MissingCredentials(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, http.MethodPost, "/api/auth/login", `{"email": "a@b.com"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = srv.do(t, http.MethodPost, "/api/auth/login", `{"password": "secret1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
