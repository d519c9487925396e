package kvstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "k", "v"))
	v, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "state.json")

	s, err := NewFileStore(path)
	require.NoError(t, err)

	require.NoError(t, s.Set(ctx, "cartItems", `[{"product_id":"p1"}]`))
	require.NoError(t, s.Set(ctx, "token", "abc"))
	require.NoError(t, s.Delete(ctx, "token"))

	// 別インスタンスで読み戻せる
	s2, err := NewFileStore(path)
	require.NoError(t, err)

	v, err := s2.Get(ctx, "cartItems")
	require.NoError(t, err)
	assert.Equal(t, `[{"product_id":"p1"}]`, v)

	_, err = s2.Get(ctx, "token")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_MissingFileStartsEmpty(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(filepath.Join(t.TempDir(), "none.json"))
	require.NoError(t, err)

	_, err = s.Get(ctx, "anything")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFileStore_CorruptFileStartsEmpty(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))

	s, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = s.Get(ctx, "anything")
	assert.ErrorIs(t, err, ErrNotFound)

	// 書き込めば直る
	require.NoError(t, s.Set(ctx, "k", "v"))
	s2, err := NewFileStore(path)
	require.NoError(t, err)
	v, err := s2.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}
