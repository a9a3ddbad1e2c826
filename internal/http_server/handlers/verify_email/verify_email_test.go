package verifyEmail

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
	acc.VerificationCode = nil
	acc.CodeExpiresAt = nil
	s.accounts[id] = acc

	return true, nil
}

type noopMailer struct{}

func (noopMailer) Send(context.Context, string, string, string, string) error { return nil }

func pendingAccount(code string, expiresAt time.Time) models.Account {
	return models.Account{
		ID:               "acc-1",
		Email:            "ada@x.com",
		FullName:         "Ada Lovelace",
		Phone:            "+2348000000000",
		PassHash:         []byte("$2a$10$irrelevant"),
		VerificationCode: &code,
		CodeExpiresAt:    &expiresAt,
	}
}

func newHandler(t *testing.T, accounts ...models.Account) http.HandlerFunc {
	t.Helper()

	store := &fakeStore{accounts: make(map[string]models.Account)}
	for _, acc := range accounts {
		store.accounts[acc.ID] = acc
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	authService := auth.New(log, store, store, store, noopMailer{},
		"test-secret", 7*24*time.Hour, 10*time.Minute)

	return New(log, validator.New(), authService)
}

func post(t *testing.T, handler http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/auth/verify-email", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	return rec
}

func TestVerifyEmailHandler(t *testing.T) {
	t.Parallel()

	t.Run("matching code verifies and returns a token", func(t *testing.T) {
		handler := newHandler(t, pendingAccount("123456", time.Now().Add(10*time.Minute)))

		rec := post(t, handler, `{"email":"ada@x.com","code":"123456"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var res Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		require.True(t, res.Success)
		require.NotEmpty(t, res.Data.Token)
		require.True(t, res.Data.User.IsVerified)
	})

	t.Run("unknown email", func(t *testing.T) {
		rec := post(t, newHandler(t), `{"email":"ghost@x.com","code":"123456"}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Contains(t, rec.Body.String(), "User not found")
	})

	t.Run("wrong code", func(t *testing.T) {
		handler := newHandler(t, pendingAccount("123456", time.Now().Add(10*time.Minute)))

		rec := post(t, handler, `{"email":"ada@x.com","code":"654321"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Invalid verification code")
	})

	t.Run("expired code", func(t *testing.T) {
		handler := newHandler(t, pendingAccount("123456", time.Now().Add(-time.Minute)))

		rec := post(t, handler, `{"email":"ada@x.com","code":"123456"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Verification code expired")
	})

	t.Run("already verified", func(t *testing.T) {
		acc := pendingAccount("123456", time.Now().Add(10*time.Minute))
		acc.IsVerified = true
		acc.VerificationCode = nil
		acc.CodeExpiresAt = nil

		rec := post(t, newHandler(t, acc), `{"email":"ada@x.com","code":"123456"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), "Email already verified")
	})

	t.Run("non-numeric code fails validation", func(t *testing.T) {
		rec := post(t, newHandler(t), `{"email":"ada@x.com","code":"abc123"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
