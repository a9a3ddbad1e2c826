package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()

	token, err := NewToken("test-secret", time.Hour, "acc-1", "ada@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken("test-secret", token)
	require.NoError(t, err)
	require.Equal(t, "acc-1", claims.AccountID)
	require.Equal(t, "ada@example.com", claims.Email)
}

func TestParseToken(t *testing.T) {
	t.Parallel()

	t.Run("rejects wrong secret", func(t *testing.T) {
		token, err := NewToken("secret-a", time.Hour, "acc-1", "ada@example.com")
		require.NoError(t, err)

		_, err = ParseToken("secret-b", token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		token, err := NewToken("secret", -time.Minute, "acc-1", "ada@example.com")
		require.NoError(t, err)

		_, err = ParseToken("secret", token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		_, err := ParseToken("secret", "not.a.token")
		require.ErrorIs(t, err, ErrInvalidToken)
	})
}
