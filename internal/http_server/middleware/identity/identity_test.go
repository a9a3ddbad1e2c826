package identity

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"student_connect/internal/lib/jwt"
)

func TestIdentityMiddleware(t *testing.T) {
	t.Parallel()

	const secret = "test-secret"

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	var gotClaims jwt.Claims
	var called bool

	handler := New(log, secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		gotClaims, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("missing header", func(t *testing.T) {
		called = false

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/profile/me", nil))

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.False(t, called)
		require.Contains(t, rec.Body.String(), `"success":false`)
	})

	t.Run("malformed header", func(t *testing.T) {
		called = false

		req := httptest.NewRequest(http.MethodGet, "/api/profile/me", nil)
		req.Header.Set("Authorization", "Token abc")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.False(t, called)
	})

	t.Run("invalid token", func(t *testing.T) {
		called = false

		req := httptest.NewRequest(http.MethodGet, "/api/profile/me", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.False(t, called)
	})

	t.Run("expired token", func(t *testing.T) {
		called = false

		token, err := jwt.NewToken(secret, -time.Minute, "acc-1", "ada@x.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/profile/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.False(t, called)
	})

	t.Run("valid token passes claims through", func(t *testing.T) {
		called = false

		token, err := jwt.NewToken(secret, time.Hour, "acc-1", "ada@x.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/profile/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, called)
		require.Equal(t, "acc-1", gotClaims.AccountID)
		require.Equal(t, "ada@x.com", gotClaims.Email)
	})
}
