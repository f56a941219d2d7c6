package ttlclamp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/stores/memory"
	"github.com/maximhq/kvs/ttl"
)

func TestTTLClampMonotonicity(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(memory.Config{})
	w := New(inner, Config{Min: 10, Max: 100})

	require.NoError(t, w.Put(ctx, "a", map[string]any{"x": 1.0}, "", ttl.Seconds(5)))
	entry, err := w.TTL(ctx, "a", "")
	require.NoError(t, err)
	require.NotNil(t, entry.Remaining)
	require.InDelta(t, 10, *entry.Remaining, 1)
	require.Equal(t, map[string]any{"x": 1.0}, entry.Value)
}

func TestTTLClampSubstitutesMissing(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(memory.Config{})
	w := New(inner, Config{Min: 10, Max: 100, MissingTTL: ttl.Seconds(50)})

	require.NoError(t, w.Put(ctx, "a", map[string]any{}, "", nil))
	entry, err := w.TTL(ctx, "a", "")
	require.NoError(t, err)
	require.NotNil(t, entry.Remaining)
	require.InDelta(t, 50, *entry.Remaining, 1)
}

func TestTTLClampUpperBound(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(memory.Config{})
	w := New(inner, Config{Min: 10, Max: 100})

	require.NoError(t, w.Put(ctx, "a", map[string]any{}, "", ttl.Seconds(1000)))
	entry, err := w.TTL(ctx, "a", "")
	require.NoError(t, err)
	require.InDelta(t, 100, *entry.Remaining, 1)
}
