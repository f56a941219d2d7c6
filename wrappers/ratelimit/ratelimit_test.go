package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/stores/memory"
)

func TestRateLimitSlidingWindowBound(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(memory.Config{})
	w := New(inner, Config{MaxRequests: 5, Window: 200 * time.Millisecond, Strategy: Sliding})

	for i := 0; i < 5; i++ {
		require.NoError(t, w.Put(ctx, "k", map[string]any{}, "", nil))
	}
	err := w.Put(ctx, "k", map[string]any{}, "", nil)
	require.True(t, kverrors.HasKind(err, kverrors.KindRateLimitExceeded))

	time.Sleep(210 * time.Millisecond)
	require.NoError(t, w.Put(ctx, "k", map[string]any{}, "", nil))
}

func TestRateLimitFixedWindowResets(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(memory.Config{})
	w := New(inner, Config{MaxRequests: 2, Window: 100 * time.Millisecond, Strategy: Fixed})

	require.NoError(t, w.Put(ctx, "k", map[string]any{}, "", nil))
	require.NoError(t, w.Put(ctx, "k", map[string]any{}, "", nil))
	err := w.Put(ctx, "k", map[string]any{}, "", nil)
	require.True(t, kverrors.HasKind(err, kverrors.KindRateLimitExceeded))

	time.Sleep(110 * time.Millisecond)
	require.NoError(t, w.Put(ctx, "k", map[string]any{}, "", nil))
}
