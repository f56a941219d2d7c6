package prefixkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/stores/memory"
)

func TestPrefixKeysDelegatesWithPrefix(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(memory.Config{})
	w := New(inner, "tenant1", "__")

	require.NoError(t, w.Put(ctx, "k", map[string]any{"v": 1.0}, "", nil))

	v, err := inner.Get(ctx, "tenant1__k", "")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"v": 1.0}, v)
}

func TestPrefixKeysEnumerateStripsPrefix(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(memory.Config{})
	w := New(inner, "tenant1", "__")

	require.NoError(t, w.Put(ctx, "a", map[string]any{}, "", nil))
	require.NoError(t, w.Put(ctx, "b", map[string]any{}, "", nil))

	keys, err := w.EnumerateKeys(ctx, "", 0)
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, keys)
}
