package esstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/storetest"
)

// newTestBackend skips the test unless a local Elasticsearch instance is
// reachable, mirroring the escape hatch used for redisstore/mongostore.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(Config{DefaultCollection: "kvs_test"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	if err := b.raw.SetupOnce(ctx); err != nil {
		t.Skip("elasticsearch not reachable at localhost:9200, skipping")
	}
	return b
}

func TestElasticsearchStoreConformance(t *testing.T) {
	storetest.RunConformance(t, func() store.Store {
		return newTestBackend(t)
	})
}

func TestElasticsearchStoreDestroyCollection(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()

	require.NoError(t, b.Put(ctx, "k1", map[string]any{"v": 1}, "scratch", nil))
	require.NoError(t, b.DestroyCollection(ctx, "scratch"))

	got, err := b.Get(ctx, "k1", "scratch")
	require.NoError(t, err)
	require.Nil(t, got)
}
