package defaultvalue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/stores/memory"
)

func TestDefaultValueReturnedOnMiss(t *testing.T) {
	ctx := context.Background()
	m := memory.New(memory.Config{})
	def := map[string]any{"plan": "free"}
	ttl := 60.0
	w := New(m, def, &ttl)

	got, err := w.Get(ctx, "missing", "")
	require.NoError(t, err)
	require.Equal(t, def, got)

	got["plan"] = "mutated"
	again, err := w.Get(ctx, "missing", "")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"plan": "free"}, again)

	entry, err := w.TTL(ctx, "missing", "")
	require.NoError(t, err)
	require.Equal(t, def, entry.Value)
	require.Equal(t, &ttl, entry.Remaining)
}

func TestDefaultValueNotUsedOnHit(t *testing.T) {
	ctx := context.Background()
	m := memory.New(memory.Config{})
	w := New(m, map[string]any{"plan": "free"}, nil)

	require.NoError(t, w.Put(ctx, "k", map[string]any{"plan": "pro"}, "", nil))
	got, err := w.Get(ctx, "k", "")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"plan": "pro"}, got)
}
