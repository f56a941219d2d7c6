package readonly

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/kverrors"
	"github.com/maximhq/kvs/stores/memory"
)

func TestReadOnlyRaisesOnWrite(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(memory.Config{})
	w := New(inner, true)

	err := w.Put(ctx, "k", map[string]any{}, "", nil)
	require.True(t, kverrors.HasKind(err, kverrors.KindReadOnly))
}

func TestReadOnlyNoOpWhenNotRaising(t *testing.T) {
	ctx := context.Background()
	inner := memory.New(memory.Config{})
	w := New(inner, false)

	require.NoError(t, w.Put(ctx, "k", map[string]any{}, "", nil))
	existed, err := w.Delete(ctx, "k", "")
	require.NoError(t, err)
	require.False(t, existed)

	v, err := w.Get(ctx, "k", "")
	require.NoError(t, err)
	require.Nil(t, v)
}
