package versioning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/stores/memory"
)

func TestVersioningMismatchInvalidates(t *testing.T) {
	ctx := context.Background()
	m := memory.New(memory.Config{})
	v1 := New(m, "1")
	v2 := New(m, "2")

	require.NoError(t, v1.Put(ctx, "k", map[string]any{"schema": "old"}, "", nil))

	got, err := v2.Get(ctx, "k", "")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestVersioningMatchUnwraps(t *testing.T) {
	ctx := context.Background()
	m := memory.New(memory.Config{})
	w := New(m, "1")

	require.NoError(t, w.Put(ctx, "k", map[string]any{"v": 1.0}, "", nil))
	got, err := w.Get(ctx, "k", "")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"v": 1.0}, got)
}

func TestVersioningPassesThroughUnwrappedLegacyPayload(t *testing.T) {
	ctx := context.Background()
	m := memory.New(memory.Config{})
	require.NoError(t, m.Put(ctx, "k", map[string]any{"legacy": true}, "", nil))

	w := New(m, "1")
	got, err := w.Get(ctx, "k", "")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"legacy": true}, got)
}
