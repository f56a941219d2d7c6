package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/storetest"
)

func TestMemoryBackendConformance(t *testing.T) {
	storetest.RunConformance(t, func() store.Store {
		return New(Config{})
	})
}

func TestMemoryBackendEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	b := New(Config{MaxEntriesPerCollection: 2})

	require.NoError(t, b.Put(ctx, "a", map[string]any{"v": 1.0}, "", nil))
	require.NoError(t, b.Put(ctx, "b", map[string]any{"v": 2.0}, "", nil))

	// touch "a" so "b" becomes least-recently-used
	_, err := b.Get(ctx, "a", "")
	require.NoError(t, err)

	require.NoError(t, b.Put(ctx, "c", map[string]any{"v": 3.0}, "", nil))

	got, err := b.Get(ctx, "b", "")
	require.NoError(t, err)
	assert.Nil(t, got, "expected least-recently-used entry to be evicted")

	got, err = b.Get(ctx, "a", "")
	require.NoError(t, err)
	assert.NotNil(t, got)

	got, err = b.Get(ctx, "c", "")
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestMemoryBackendSeed(t *testing.T) {
	ctx := context.Background()
	b := New(Config{
		Seed: map[string]map[string]map[string]any{
			"default_collection": {"seeded": {"v": "hello"}},
		},
	})

	got, err := b.Get(ctx, "seeded", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"v": "hello"}, got)
}

func TestMemoryBackendEnumerateKeys(t *testing.T) {
	ctx := context.Background()
	b := New(Config{})
	require.NoError(t, b.Put(ctx, "a", map[string]any{}, "", nil))
	require.NoError(t, b.Put(ctx, "b", map[string]any{}, "", nil))

	keys, err := b.EnumerateKeys(ctx, "", 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, keys)
}

func TestMemoryBackendDestroyCollection(t *testing.T) {
	ctx := context.Background()
	b := New(Config{})
	require.NoError(t, b.Put(ctx, "a", map[string]any{}, "one", nil))
	require.NoError(t, b.DestroyCollection(ctx, "one"))

	got, err := b.Get(ctx, "a", "one")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoryBackendDestroyStore(t *testing.T) {
	ctx := context.Background()
	b := New(Config{})
	require.NoError(t, b.Put(ctx, "a", map[string]any{}, "one", nil))
	require.NoError(t, b.Put(ctx, "b", map[string]any{}, "two", nil))
	require.NoError(t, b.DestroyStore(ctx))

	colls, err := b.EnumerateCollections(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, colls)
}
