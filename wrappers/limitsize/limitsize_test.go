package limitsize

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/stores/memory"
)

func TestLimitSizeRaisesOnOversize(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(memory.Config{})
	w := New(inner, Config{MaxSize: 10, RaiseOnError: true})

	err := w.Put(ctx, "k", map[string]any{"v": "this value is definitely too long"}, "", nil)
	require.True(t, kverrors.HasKind(err, kverrors.KindEntryTooLarge))
}

func TestLimitSizeSilentlyDrops(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(memory.Config{})
	w := New(inner, Config{MaxSize: 10, RaiseOnError: false})

	require.NoError(t, w.Put(ctx, "k", map[string]any{"v": "this value is definitely too long"}, "", nil))

	v, err := inner.Get(ctx, "k", "")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestLimitSizeAllowsWithinBound(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(memory.Config{})
	w := New(inner, Config{MaxSize: 1000})

	require.NoError(t, w.Put(ctx, "k", map[string]any{"v": 1.0}, "", nil))
	v, err := w.Get(ctx, "k", "")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"v": 1.0}, v)
}
