package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fleetwatch/go-fleet-client/storage"
)

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("auth.tokens", []byte(`{"accessToken":"a"}`)))

	value, err := store.Get("auth.tokens")
	require.NoError(t, err)
	require.JSONEq(t, `{"accessToken":"a"}`, string(value))
}

func TestFileStoreGetMissingKey(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Get("missing")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileStoreOverwrite(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("k", []byte("one")))
	require.NoError(t, store.Set("k", []byte("two")))

	value, err := store.Get("k")
	require.NoError(t, err)
	require.Equal(t, "two", string(value))
}

func TestFileStoreDeleteIsIdempotent(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Set("k", []byte("v")))
	require.NoError(t, store.Delete("k"))
	require.NoError(t, store.Delete("k"))

	_, err = store.Get("k")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestFileStoreSanitizesKeys(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Set("a/b:c", []byte("v")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a_b_c.json", entries[0].Name())

	value, err := store.Get("a/b:c")
	require.NoError(t, err)
	require.Equal(t, "v", string(value))
}

func TestNewFileStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "state")
	_, err := storage.NewFileStore(dir)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())
}
