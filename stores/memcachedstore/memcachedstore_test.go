package memcachedstore

import (
	"testing"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/storetest"
)

// newTestBackend skips the test unless a local Memcached instance is
// reachable, the same escape hatch bifrost's own network-dependent tests use
// for environments without the service running.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b := New(Config{Servers: []string{"localhost:11211"}})

	probe := &memcache.Item{Key: "__kvs_memcached_reachability_probe__", Value: []byte("ok"), Expiration: 1}
	if err := b.raw.client.Set(probe); err != nil {
		t.Skip("memcached not reachable at localhost:11211, skipping")
	}
	_ = b.raw.client.Delete(probe.Key)
	return b
}

func TestMemcachedStoreConformance(t *testing.T) {
	storetest.RunConformance(t, func() store.Store {
		return newTestBackend(t)
	})
}
