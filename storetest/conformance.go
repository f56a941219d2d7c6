// Package storetest is the shared conformance suite every backend's tests
// run against. It is the Go equivalent of
// key-value-aio/tests/conftest.py's parametrize-over-stores fixture:
// instead of pytest parametrization, callers pass a factory function and
// RunConformance exercises the store-level universal properties from
// spec.md §8 (round-trip, delete, collection isolation, bulk alignment) as
// subtests.
package storetest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/ttl"
)

// Factory builds a fresh, empty Store for one subtest.
type Factory func() store.Store

// RunConformance runs the store-level conformance subtests against factory(). Each
// subtest gets its own fresh store so properties don't leak state between
// each other.
func RunConformance(t *testing.T, factory Factory) {
	t.Helper()

	t.Run("get_miss_returns_nil", func(t *testing.T) {
		s := factory()
		v, err := s.Get(context.Background(), "absent", "")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("put_then_get_round_trips", func(t *testing.T) {
		s := factory()
		ctx := context.Background()
		want := map[string]any{"a": 1.0, "b": "x"}
		require.NoError(t, s.Put(ctx, "k1", want, "", nil))

		got, err := s.Get(ctx, "k1", "")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("put_is_last_writer_wins", func(t *testing.T) {
		s := factory()
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "k1", map[string]any{"v": 1.0}, "", nil))
		require.NoError(t, s.Put(ctx, "k1", map[string]any{"v": 2.0}, "", nil))

		got, err := s.Get(ctx, "k1", "")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"v": 2.0}, got)
	})

	t.Run("delete_reports_existed_before", func(t *testing.T) {
		s := factory()
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "k1", map[string]any{}, "", nil))

		existed, err := s.Delete(ctx, "k1", "")
		require.NoError(t, err)
		assert.True(t, existed)

		existed, err = s.Delete(ctx, "k1", "")
		require.NoError(t, err)
		assert.False(t, existed)
	})

	t.Run("delete_is_idempotent", func(t *testing.T) {
		s := factory()
		ctx := context.Background()
		_, err := s.Delete(ctx, "never-existed", "")
		require.NoError(t, err)
		_, err = s.Delete(ctx, "never-existed", "")
		require.NoError(t, err)
	})

	t.Run("get_is_idempotent", func(t *testing.T) {
		s := factory()
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "k1", map[string]any{"v": 1.0}, "", nil))
		a, err := s.Get(ctx, "k1", "")
		require.NoError(t, err)
		b, err := s.Get(ctx, "k1", "")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("ttl_without_expiry_has_nil_remaining", func(t *testing.T) {
		s := factory()
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "k1", map[string]any{"v": 1.0}, "", nil))

		entry, err := s.TTL(ctx, "k1", "")
		require.NoError(t, err)
		require.NotNil(t, entry.Value)
		assert.Nil(t, entry.Remaining)
	})

	t.Run("ttl_with_expiry_has_positive_remaining", func(t *testing.T) {
		s := factory()
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "k1", map[string]any{"v": 1.0}, "", ttl.Seconds(60)))

		entry, err := s.TTL(ctx, "k1", "")
		require.NoError(t, err)
		require.NotNil(t, entry.Remaining)
		assert.Greater(t, *entry.Remaining, 0.0)
	})

	t.Run("bulk_positional_alignment_get_many", func(t *testing.T) {
		s := factory()
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "a", map[string]any{"v": "A"}, "", nil))
		require.NoError(t, s.Put(ctx, "c", map[string]any{"v": "C"}, "", nil))

		out, err := s.GetMany(ctx, []string{"a", "b", "c"}, "")
		require.NoError(t, err)
		require.Len(t, out, 3)
		assert.Equal(t, map[string]any{"v": "A"}, out[0])
		assert.Nil(t, out[1])
		assert.Equal(t, map[string]any{"v": "C"}, out[2])
	})

	t.Run("bulk_positional_alignment_ttl_many", func(t *testing.T) {
		s := factory()
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "a", map[string]any{"v": "A"}, "", nil))

		out, err := s.TTLMany(ctx, []string{"a", "missing"}, "")
		require.NoError(t, err)
		require.Len(t, out, 2)
		assert.Equal(t, map[string]any{"v": "A"}, out[0].Value)
		assert.Nil(t, out[1].Value)
	})

	t.Run("put_many_rejects_length_mismatch", func(t *testing.T) {
		s := factory()
		ctx := context.Background()
		err := s.PutMany(ctx, []string{"a", "b"}, []map[string]any{{"v": 1.0}}, "", ttl.None())
		require.Error(t, err)
	})

	t.Run("put_many_then_get_many", func(t *testing.T) {
		s := factory()
		ctx := context.Background()
		keys := []string{"x", "y", "z"}
		values := []map[string]any{{"v": 1.0}, {"v": 2.0}, {"v": 3.0}}
		require.NoError(t, s.PutMany(ctx, keys, values, "", ttl.None()))

		out, err := s.GetMany(ctx, keys, "")
		require.NoError(t, err)
		assert.Equal(t, values, out)
	})

	t.Run("delete_many_counts_removed", func(t *testing.T) {
		s := factory()
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "a", map[string]any{}, "", nil))
		require.NoError(t, s.Put(ctx, "b", map[string]any{}, "", nil))

		count, err := s.DeleteMany(ctx, []string{"a", "b", "c"}, "")
		require.NoError(t, err)
		assert.Equal(t, 2, count)
	})

	t.Run("collections_are_isolated", func(t *testing.T) {
		s := factory()
		ctx := context.Background()
		require.NoError(t, s.Put(ctx, "k1", map[string]any{"v": "in-one"}, "one", nil))

		got, err := s.Get(ctx, "k1", "two")
		require.NoError(t, err)
		assert.Nil(t, got)

		got, err = s.Get(ctx, "k1", "one")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"v": "in-one"}, got)
	})

	t.Run("empty_key_rejected", func(t *testing.T) {
		s := factory()
		ctx := context.Background()
		_, err := s.Get(ctx, "", "")
		assert.Error(t, err)
	})
}
