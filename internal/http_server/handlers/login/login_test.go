package login

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"student_connect/internal/auth"
	"student_connect/internal/models"
	"student_connect/internal/storage"
)

type fakeStore struct {
	accounts map[string]models.Account
}

func (s *fakeStore) SaveAccount(_ context.Context, acc models.Account) error {
	s.accounts[acc.ID] = acc
	return nil
}

func (s *fakeStore) AccountByEmail(_ context.Context, email string) (models.Account, error) {
	for _, acc := range s.accounts {
		if acc.Email == email {
			return acc, nil
		}
	}

	return models.Account{}, storage.ErrAccountNotFound
}

func (s *fakeStore) AccountByID(_ context.Context, id string) (models.Account, error) {
	acc, ok := s.accounts[id]
	if !ok {
		return models.Account{}, storage.ErrAccountNotFound
	}

	return acc, nil
}

func (s *fakeStore) SetVerificationCode(_ context.Context, id, code string, expiresAt time.Time) error {
	acc := s.accounts[id]
	acc.VerificationCode = &code
	acc.CodeExpiresAt = &expiresAt
	s.accounts[id] = acc

	return nil
}

func (s *fakeStore) MarkVerified(_ context.Context, id string) (bool, error) {
	acc, ok := s.accounts[id]
	if !ok || acc.IsVerified {
		return false, nil
	}
	acc.IsVerified = true
	s.accounts[id] = acc

	return true, nil
}

type noopMailer struct{}

func (noopMailer) Send(context.Context, string, string, string, string) error { return nil }

func newHandler(t *testing.T, verified bool) http.HandlerFunc {
	t.Helper()

	passHash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.DefaultCost)
	require.NoError(t, err)

	store := &fakeStore{accounts: map[string]models.Account{
		"acc-1": {
			ID:         "acc-1",
			Email:      "ada@x.com",
			FullName:   "Ada Lovelace",
			Phone:      "+2348000000000",
			PassHash:   passHash,
			IsVerified: verified,
		},
	}}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	authService := auth.New(log, store, store, store, noopMailer{},
		"test-secret", 7*24*time.Hour, 10*time.Minute)

	return New(log, validator.New(), authService)
}

func post(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func TestLoginHandler(t *testing.T) {
	t.Parallel()

	t.Run("verified account logs in", func(t *testing.T) {
		rec := post(t, newHandler(t, true), `{"email":"ada@x.com","password":"secret1"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var res Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		require.True(t, res.Success)
		require.NotEmpty(t, res.Data.Token)
		require.Equal(t, "acc-1", res.Data.User.ID)
	})

	t.Run("unverified account is forbidden", func(t *testing.T) {
		rec := post(t, newHandler(t, false), `{"email":"ada@x.com","password":"secret1"}`)
		require.Equal(t, http.StatusForbidden, rec.Code)
		require.Contains(t, rec.Body.String(), "Please verify your email before logging in")
	})

	t.Run("wrong password and unknown email share status and message", func(t *testing.T) {
		handler := newHandler(t, true)

		wrongPass := post(t, handler, `{"email":"ada@x.com","password":"nope"}`)
		unknown := post(t, handler, `{"email":"ghost@x.com","password":"secret1"}`)

		require.Equal(t, http.StatusUnauthorized, wrongPass.Code)
		require.Equal(t, http.StatusUnauthorized, unknown.Code)
		require.JSONEq(t, wrongPass.Body.String(), unknown.Body.String())
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := post(t, newHandler(t, true), `{"email":"ada@x.com"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
