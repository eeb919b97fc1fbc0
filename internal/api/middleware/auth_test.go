package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-engine/internal/config"
	"loan-engine/internal/domain/loan"
)

func TestAuthMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	secret := "testsecret"
	cfg := config.AuthConfig{Enabled: true, JWTSecret: secret}

	var seen loan.Caller
	var seenOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, seenOK = CallerFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	serve := func(cfg config.AuthConfig, authHeader string) *httptest.ResponseRecorder {
		seen, seenOK = loan.Caller{}, false
		req := httptest.NewRequest(http.MethodGet, "/loans", nil)
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		rec := httptest.NewRecorder()
		AuthMiddleware(cfg, logger)(next).ServeHTTP(rec, req)
		return rec
	}

	t.Run("Disabled middleware runs requests as anonymous admin", func(t *testing.T) {
		rec := serve(config.AuthConfig{Enabled: false}, "")

		assert.Equal(t, http.StatusOK, rec.Code)
		require.True(t, seenOK)
		assert.Equal(t, AnonymousCaller, seen)
	})

	t.Run("Missing Authorization header", func(t *testing.T) {
		rec := serve(cfg, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":{"message":"Unauthorized"}}`, rec.Body.String())
		assert.False(t, seenOK)
	})

	t.Run("Malformed header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(cfg, "Token abc").Code)
	})

	t.Run("Invalid token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, serve(cfg, "Bearer invalidtoken").Code)
	})

	t.Run("Valid token carries subject and role", func(t *testing.T) {
		token, _, err := IssueToken(secret, loan.Caller{Subject: "alice", Role: loan.RoleLoanOfficer}, time.Hour, time.Now())
		require.NoError(t, err)

		rec := serve(cfg, "Bearer "+token)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, loan.Caller{Subject: "alice", Role: loan.RoleLoanOfficer}, seen)
	})

	t.Run("Missing role defaults to customer", func(t *testing.T) {
		token, _, err := IssueToken(secret, loan.Caller{Subject: "bob"}, time.Hour, time.Now())
		require.NoError(t, err)

		serve(cfg, "bearer "+token)

		assert.Equal(t, loan.RoleCustomer, seen.Role)
	})

	t.Run("Expired token", func(t *testing.T) {
		token, _, err := IssueToken(secret, loan.Caller{Subject: "alice", Role: loan.RoleCustomer}, time.Hour, time.Now().Add(-2*time.Hour))
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, serve(cfg, "Bearer "+token).Code)
	})

	t.Run("Token signed with another secret", func(t *testing.T) {
		token, _, err := IssueToken("other", loan.Caller{Subject: "alice", Role: loan.RoleCustomer}, time.Hour, time.Now())
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, serve(cfg, "Bearer "+token).Code)
	})

	t.Run("System role cannot be claimed", func(t *testing.T) {
		token, _, err := IssueToken(secret, loan.Caller{Subject: "mallory", Role: loan.RoleSystem}, time.Hour, time.Now())
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, serve(cfg, "Bearer "+token).Code)
	})

	t.Run("Token without expiry", func(t *testing.T) {
		claims := CallerClaims{Role: loan.RoleCustomer, RegisteredClaims: jwt.RegisteredClaims{Subject: "alice"}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, serve(cfg, "Bearer "+token).Code)
	})

	t.Run("Unexpected signing method", func(t *testing.T) {
		claims := CallerClaims{Role: loan.RoleCustomer, RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(secret))
		require.NoError(t, err)

		assert.Equal(t, http.StatusUnauthorized, serve(cfg, "Bearer "+token).Code)
	})
}

func TestIssueToken(t *testing.T) {
	now := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

	_, expiresAt, err := IssueToken("secret", loan.Caller{Subject: "alice", Role: loan.RoleCustomer}, 24*time.Hour, now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(24*time.Hour), expiresAt)

	_, _, err = IssueToken("", loan.Caller{Subject: "alice"}, time.Hour, now)
	assert.Error(t, err)
}
