package diskstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/storetest"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	dir := t.TempDir()
	b, err := New(Config{Path: filepath.Join(dir, "kvs.db"), CreateDir: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestDiskStoreConformance(t *testing.T) {
	storetest.RunConformance(t, func() store.Store {
		return newTestBackend(t)
	})
}

func TestDiskStoreRejectsMissingDirWhenCreateDirFalse(t *testing.T) {
	_, err := New(Config{Path: "/nonexistent-kvs-dir-xyz/kvs.db", CreateDir: false})
	require.Error(t, err)
	assert.True(t, kverrors.HasKind(err, kverrors.KindConfiguration))
}

func TestDiskStoreEnumerateAndDestroy(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.Put(ctx, "a", map[string]any{}, "coll1", nil))
	require.NoError(t, b.Put(ctx, "b", map[string]any{}, "coll1", nil))

	keys, err := b.EnumerateKeys(ctx, "coll1", 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, keys)

	require.NoError(t, b.DestroyCollection(ctx, "coll1"))
	keys, err = b.EnumerateKeys(ctx, "coll1", 0)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestDiskStoreAdoptsCallerHandle(t *testing.T) {
	dir := t.TempDir()
	owner, err := New(Config{Path: filepath.Join(dir, "kvs.db"), CreateDir: true})
	require.NoError(t, err)

	adopted, err := New(Config{Handle: owner.raw.db})
	require.NoError(t, err)

	// adopted did not open the handle, so Close must be a no-op on it.
	require.NoError(t, adopted.Close())
	require.NoError(t, owner.Close())
}
