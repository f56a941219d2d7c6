package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/storetest"
)

// newTestBackend skips the test unless a local MongoDB instance is
// reachable, mirroring the escape hatch used for redisstore.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	b, err := New(ctx, Config{Database: "kvs_test"})
	if err != nil {
		t.Skip("mongodb not reachable at localhost:27017, skipping")
	}
	if err := b.raw.client.Ping(ctx, nil); err != nil {
		t.Skip("mongodb not reachable at localhost:27017, skipping")
	}
	t.Cleanup(func() {
		_ = b.DestroyStore(context.Background())
		_ = b.Close(context.Background())
	})
	return b
}

func TestMongoStoreConformance(t *testing.T) {
	storetest.RunConformance(t, func() store.Store {
		return newTestBackend(t)
	})
}
