package verification

import (
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewCode(t *testing.T) {
	t.Parallel()

	for i := 0; i < 100; i++ {
		code, err := NewCode(10 * time.Minute)
		require.NoError(t, err)
		require.Len(t, code.Value, 6)

		n, err := strconv.Atoi(code.Value)
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100000)
		require.LessOrEqual(t, n, 999999)
	}

	code, err := NewCode(10 * time.Minute)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(10*time.Minute), code.ExpiresAt, time.Second)
}

func TestRenderEmail(t *testing.T) {
	t.Parallel()

	text, html := RenderEmail("Ada Lovelace", "123456")

	require.Contains(t, text, "Ada Lovelace")
	require.Contains(t, text, "123456")
	require.Contains(t, text, "expire in 10 minutes")

	require.Contains(t, html, "Ada Lovelace")
	require.Contains(t, html, "123456")
	require.Contains(t, html, "expire in 10 minutes")
	require.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
}

func TestRenderEmailEscapesName(t *testing.T) {
	t.Parallel()

	_, html := RenderEmail("<script>alert(1)</script>", "123456")
	require.NotContains(t, html, "<script>")
}
