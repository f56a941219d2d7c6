package routing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/stores/memory"
)

func TestCollectionRoutingDispatchesByCollection(t *testing.T) {
	ctx := context.Background()
	users := memory.New(memory.Config{})
	sessions := memory.New(memory.Config{})

	w, err := NewCollectionRouting(map[string]store.Store{
		"users":    users,
		"sessions": sessions,
	}, nil)
	require.NoError(t, err)

	require.NoError(t, w.Put(ctx, "k", map[string]any{"v": 1.0}, "users", nil))

	got, err := users.Get(ctx, "k", "users")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"v": 1.0}, got)

	got, err = sessions.Get(ctx, "k", "users")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRoutingFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	fallback := memory.New(memory.Config{})

	w, err := NewCollectionRouting(map[string]store.Store{}, fallback)
	require.NoError(t, err)

	require.NoError(t, w.Put(ctx, "k", map[string]any{"v": 1.0}, "anything", nil))
	got, err := fallback.Get(ctx, "k", "anything")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"v": 1.0}, got)
}

func TestRoutingRaisesConfigurationErrorWhenUnmatchedAndNoDefault(t *testing.T) {
	ctx := context.Background()
	w, err := NewCollectionRouting(map[string]store.Store{}, nil)
	require.NoError(t, err)

	_, err = w.Get(ctx, "k", "anything")
	require.True(t, kverrors.HasKind(err, kverrors.KindConfiguration))
}

func TestNewRequiresRouteOrFallback(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
}
