package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inklore/server/internal/config"
	"inklore/server/internal/interfaces"
)

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(config.FileConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	return store
}

func TestFileStoreRoundTrip(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	rec := &interfaces.SaveRecord{
		Name:    "The Crypt",
		Context: "You stand before a crypt.",
		Memory:  "The key is under the mat.",
		Actions: []string{"open door"},
		Results: []string{"It creaks."},
	}
	require.NoError(t, store.Save(ctx, "The_Crypt", rec))

	got, err := store.Load(ctx, "The_Crypt")
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestFileStoreSaveOverwrites(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "q", &interfaces.SaveRecord{Name: "first"}))
	require.NoError(t, store.Save(ctx, "q", &interfaces.SaveRecord{Name: "second"}))

	got, err := store.Load(ctx, "q")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Name)
}

func TestFileStoreLoadMissing(t *testing.T) {
	store := newTestFileStore(t)

	_, err := store.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestFileStoreLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(config.FileConfig{Dir: dir})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"name":"q"}`), 0o644))

	_, err = store.Load(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrRecordMalformed)
}

func TestFileStoreList(t *testing.T) {
	store := newTestFileStore(t)
	ctx := context.Background()

	keys, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, keys)

	require.NoError(t, store.Save(ctx, "alpha", &interfaces.SaveRecord{Name: "alpha"}))
	require.NoError(t, store.Save(ctx, "beta", &interfaces.SaveRecord{Name: "beta"}))

	keys, err = store.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, keys)
}
