package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"gofalre.io/storefront/cart"
	"gofalre.io/storefront/storage"
)

var (
	_ cart.Storage = (*storage.File)(nil)
	_ cart.Storage = (*storage.Redis)(nil)
)

func newFile(t *testing.T) (*storage.File, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "storefront")
	f, err := storage.NewFile(dir, zaptest.NewLogger(t))
	require.NoError(t, err)
	return f, dir
}

func TestFile_RoundTrip(t *testing.T) {
	ctx := t.Context()
	f, _ := newFile(t)

	_, found, err := f.Get(ctx, "cart")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, f.Set(ctx, "cart", []byte(`[{"id":1}]`)))
	require.NoError(t, f.Set(ctx, "cart", []byte(`[{"id":2}]`)))

	data, found, err := f.Get(ctx, "cart")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `[{"id":2}]`, string(data))
}

func TestFile_DeleteRemovesEntry(t *testing.T) {
	ctx := t.Context()
	f, dir := newFile(t)

	require.NoError(t, f.Set(ctx, "cart", []byte(`[]`)))
	require.NoError(t, f.Delete(ctx, "cart"))

	_, found, err := f.Get(ctx, "cart")
	require.NoError(t, err)
	assert.False(t, found)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no temp files or empty snapshots left behind")
}

func TestFile_DeleteMissingKey(t *testing.T) {
	f, _ := newFile(t)

	assert.NoError(t, f.Delete(t.Context(), "cart"))
}

func TestFile_InvalidKeys(t *testing.T) {
	ctx := t.Context()
	f, _ := newFile(t)

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		t.Run(key, func(t *testing.T) {
			assert.Error(t, f.Set(ctx, key, []byte("x")))
			_, _, err := f.Get(ctx, key)
			assert.Error(t, err)
			assert.Error(t, f.Delete(ctx, key))
		})
	}
}
