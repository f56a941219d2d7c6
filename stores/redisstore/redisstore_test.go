package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/storetest"
)

// newTestBackend skips the test unless a local Redis/Valkey instance is
// reachable, the same escape hatch bifrost's own Redis-dependent tests use
// for environments without the service running.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(Config{Addr: "localhost:6379"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := b.raw.client.Ping(ctx).Err(); err != nil {
		t.Skip("redis not reachable at localhost:6379, skipping")
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestRedisStoreConformance(t *testing.T) {
	storetest.RunConformance(t, func() store.Store {
		return newTestBackend(t)
	})
}

func TestRedisStoreEnumerateKeys(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "a", map[string]any{}, "enumtest", nil))
	require.NoError(t, b.Put(ctx, "b", map[string]any{}, "enumtest", nil))
	t.Cleanup(func() { _ = b.DestroyCollection(ctx, "enumtest") })

	keys, err := b.EnumerateKeys(ctx, "enumtest", 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(keys), 2)
}
