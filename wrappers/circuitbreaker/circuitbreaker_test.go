package circuitbreaker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/store"
)

// failingStore always fails Get with StoreConnection until healthy is set.
type failingStore struct {
	store.Store
	healthy bool
}

func (f *failingStore) Get(ctx context.Context, key, collection string) (map[string]any, error) {
	if f.healthy {
		return map[string]any{"v": 1.0}, nil
	}
	return nil, kverrors.New(kverrors.KindStoreConnection, "get", "injected failure", nil)
}

func TestCircuitBreakerFSM(t *testing.T) {
	ctx := context.Background()
	inner := &failingStore{}
	w := New(inner, Config{
		FailureThreshold: 3,
		RecoveryTimeout:  20 * time.Millisecond,
		SuccessThreshold: 2,
		ErrorTypes:       []kverrors.Kind{kverrors.KindStoreConnection},
	})

	for i := 0; i < 3; i++ {
		_, err := w.Get(ctx, "k", "")
		require.True(t, kverrors.HasKind(err, kverrors.KindStoreConnection))
	}
	require.Equal(t, Open, w.State())

	_, err := w.Get(ctx, "k", "")
	require.True(t, kverrors.HasKind(err, kverrors.KindCircuitOpen))

	time.Sleep(25 * time.Millisecond)
	inner.healthy = true

	_, err = w.Get(ctx, "k", "")
	require.NoError(t, err)
	require.Equal(t, HalfOpen, w.State())

	_, err = w.Get(ctx, "k", "")
	require.NoError(t, err)
	require.Equal(t, Closed, w.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	ctx := context.Background()
	inner := &failingStore{}
	w := New(inner, Config{
		FailureThreshold: 1,
		RecoveryTimeout:  10 * time.Millisecond,
		SuccessThreshold: 2,
		ErrorTypes:       []kverrors.Kind{kverrors.KindStoreConnection},
	})

	_, _ = w.Get(ctx, "k", "")
	require.Equal(t, Open, w.State())

	time.Sleep(15 * time.Millisecond)
	_, err := w.Get(ctx, "k", "")
	require.True(t, kverrors.HasKind(err, kverrors.KindStoreConnection))
	require.Equal(t, Open, w.State())
}
