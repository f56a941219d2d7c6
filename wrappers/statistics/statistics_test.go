package statistics

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/stores/memory"
)

func TestStatisticsCountsHitsAndMisses(t *testing.T) {
	ctx := context.Background()
	m := memory.New(memory.Config{})
	w := New(m)

	_, err := w.Get(ctx, "missing", "col")
	require.NoError(t, err)

	require.NoError(t, w.Put(ctx, "k", map[string]any{"v": 1.0}, "col", nil))
	_, err = w.Get(ctx, "k", "col")
	require.NoError(t, err)

	snap := w.Stats()["col"]
	require.Equal(t, Counter{Count: 2, Hit: 1, Miss: 1}, snap["get"])
	require.Equal(t, Counter{Count: 1, Hit: 1, Miss: 0}, snap["put"])
}

func TestStatisticsDeleteHitReflectsExistence(t *testing.T) {
	ctx := context.Background()
	m := memory.New(memory.Config{})
	w := New(m)

	require.NoError(t, w.Put(ctx, "k", map[string]any{"v": 1.0}, "col", nil))

	existed, err := w.Delete(ctx, "k", "col")
	require.NoError(t, err)
	require.True(t, existed)

	existed, err = w.Delete(ctx, "k", "col")
	require.NoError(t, err)
	require.False(t, existed)

	snap := w.Stats()["col"]
	require.Equal(t, Counter{Count: 2, Hit: 1, Miss: 1}, snap["delete"])
}
