package bulkhead

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/store"
)

// blockingStore blocks every Get until release is closed, tracking the
// maximum number of concurrently inflight calls.
type blockingStore struct {
	store.Store
	release   chan struct{}
	inflight  int32
	maxSeen   int32
	mu        sync.Mutex
}

func (b *blockingStore) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	n := atomic.AddInt32(&b.inflight, 1)
	b.mu.Lock()
	if n > b.maxSeen {
		b.maxSeen = n
	}
	b.mu.Unlock()
	<-b.release
	atomic.AddInt32(&b.inflight, -1)
	return nil, nil
}

func TestBulkheadBoundsConcurrency(t *testing.T) {
	release := make(chan struct{})
	backing := &blockingStore{release: release}
	w := New(backing, Config{MaxConcurrent: 2, MaxWaiting: 10})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = w.Get(context.Background(), "k", "")
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	require.LessOrEqual(t, int(backing.maxSeen), 2)
}

func TestBulkheadFailsFastWhenSaturated(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	backing := &blockingStore{release: release}
	w := New(backing, Config{MaxConcurrent: 1, MaxWaiting: 0})

	go func() { _, _ = w.Get(context.Background(), "a", "") }()
	time.Sleep(20 * time.Millisecond)

	_, err := w.Get(context.Background(), "b", "")
	require.True(t, kverrors.HasKind(err, kverrors.KindBulkheadFull))
}
