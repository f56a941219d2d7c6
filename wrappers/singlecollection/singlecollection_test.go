package singlecollection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/stores/memory"
)

func TestSingleCollectionIsolatesByFoldedKey(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(memory.Config{})
	w := New(inner, Config{SingleCollection: "physical"})

	require.NoError(t, w.Put(ctx, "k", map[string]any{"v": 1.0}, "one", nil))
	require.NoError(t, w.Put(ctx, "k", map[string]any{"v": 2.0}, "two", nil))

	v1, err := w.Get(ctx, "k", "one")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"v": 1.0}, v1)

	v2, err := w.Get(ctx, "k", "two")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"v": 2.0}, v2)

	physical, err := inner.Get(ctx, "one::k", "physical")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"v": 1.0}, physical)
}

func TestSingleCollectionEnumerateStripsPrefix(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(memory.Config{})
	w := New(inner, Config{SingleCollection: "physical"})

	require.NoError(t, w.Put(ctx, "a", map[string]any{}, "one", nil))
	require.NoError(t, w.Put(ctx, "b", map[string]any{}, "one", nil))
	require.NoError(t, w.Put(ctx, "c", map[string]any{}, "two", nil))

	keys, err := w.EnumerateKeys(ctx, "one", 0)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, keys)
}
