package session

import (
	"context"
	"testing"
	"time"

	"storefront/internal/kvstore"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": exp.Unix(),
	})
	signed, err := tok.SignedString([]byte("test_secret"))
	require.NoError(t, err)
	return signed
}

func TestSession_TokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(kvstore.NewMemoryStore())

	_, err := s.Token(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, s.SetToken(ctx, "abc"))
	tok, err := s.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Token(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}

func TestSession_Expired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	t.Run("not logged in", func(t *testing.T) {
		s := New(kvstore.NewMemoryStore())
		expired, err := s.Expired(ctx, now)
		assert.ErrorIs(t, err, ErrNotLoggedIn)
		assert.True(t, expired)
	})

	t.Run("future expiry", func(t *testing.T) {
		s := New(kvstore.NewMemoryStore())
		require.NoError(t, s.SetToken(ctx, signedToken(t, now.Add(time.Hour))))

		expired, err := s.Expired(ctx, now)
		require.NoError(t, err)
		assert.False(t, expired)
	})

	t.Run("past expiry", func(t *testing.T) {
		s := New(kvstore.NewMemoryStore())
		require.NoError(t, s.SetToken(ctx, signedToken(t, now.Add(-time.Hour))))

		expired, err := s.Expired(ctx, now)
		require.NoError(t, err)
		assert.True(t, expired)
	})

	t.Run("opaque token counts as valid", func(t *testing.T) {
		// JWTでないトークンは期限を読めないので有効扱い
		s := New(kvstore.NewMemoryStore())
		require.NoError(t, s.SetToken(ctx, "opaque-session-token"))

		expired, err := s.Expired(ctx, now)
		require.NoError(t, err)
		assert.False(t, expired)
	})
}
