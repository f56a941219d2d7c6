package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/stores/memory"
)

// flakyStore fails its first N Get calls with a StoreConnection error, then
// delegates to inner.
type flakyStore struct {
	store.Store
	inner      store.Store
	failsLeft  int
	failedKind kverrors.Kind
}

func (f *flakyStore) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	if f.failsLeft > 0 {
		f.failsLeft--
		return nil, kverrors.New(f.failedKind, "get", "injected failure", nil)
	}
	return f.inner.Get(ctx, key, collection)
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	ctx := context.Background()
	backing := memory.New(memory.Config{})
	require.NoError(t, backing.Put(ctx, "k", map[string]any{"v": 1.0}, "", nil))

	flaky := &flakyStore{Store: backing, inner: backing, failsLeft: 2, failedKind: kverrors.KindStoreConnection}
	w := New(flaky, Config{MaxRetries: 3, RetryOn: []kverrors.Kind{kverrors.KindStoreConnection}, InitialDelay: time.Millisecond})

	v, err := w.Get(ctx, "k", "")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"v": 1.0}, v)
}

func TestRetryPropagatesNonMatchingErrorImmediately(t *testing.T) {
	ctx := context.Background()
	backing := memory.New(memory.Config{})
	flaky := &flakyStore{Store: backing, inner: backing, failsLeft: 1, failedKind: kverrors.KindInvalidKey}
	w := New(flaky, Config{MaxRetries: 3, RetryOn: []kverrors.Kind{kverrors.KindStoreConnection}, InitialDelay: time.Millisecond})

	_, err := w.Get(ctx, "k", "")
	require.True(t, kverrors.HasKind(err, kverrors.KindInvalidKey))
}

func TestRetryExhaustsAndPropagatesLastError(t *testing.T) {
	ctx := context.Background()
	backing := memory.New(memory.Config{})
	flaky := &flakyStore{Store: backing, inner: backing, failsLeft: 100, failedKind: kverrors.KindStoreConnection}
	w := New(flaky, Config{MaxRetries: 2, RetryOn: []kverrors.Kind{kverrors.KindStoreConnection}, InitialDelay: time.Millisecond})

	_, err := w.Get(ctx, "k", "")
	require.True(t, kverrors.HasKind(err, kverrors.KindStoreConnection))
}
