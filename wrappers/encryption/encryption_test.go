package encryption

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/stores/memory"
)

func testKey(version int, seed byte) Key {
	var k Key
	k.Version = version
	for i := range k.Secret {
		k.Secret[i] = seed
	}
	return k
}

func TestEncryptionRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := memory.New(memory.Config{})
	w := New(m, []Key{testKey(1, 0xAB)}, Strict)

	require.NoError(t, w.Put(ctx, "u", map[string]any{"name": "alice"}, "", nil))

	got, err := w.Get(ctx, "u", "")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"name": "alice"}, got)

	raw, err := m.Get(ctx, "u", "")
	require.NoError(t, err)
	require.Contains(t, raw, encryptedField)
	require.NotContains(t, raw, "name")
}

func TestEncryptionKeyRotation(t *testing.T) {
	ctx := context.Background()
	m := memory.New(memory.Config{})
	oldWrapper := New(m, []Key{testKey(1, 0x01)}, Strict)
	require.NoError(t, oldWrapper.Put(ctx, "k", map[string]any{"v": 1.0}, "", nil))

	rotated := New(m, []Key{testKey(2, 0x02), testKey(1, 0x01)}, Strict)
	got, err := rotated.Get(ctx, "k", "")
	require.NoError(t, err)
	require.Equal(t, map[string]any{"v": 1.0}, got)
}

func TestEncryptionLenientOnUnknownKey(t *testing.T) {
	ctx := context.Background()
	m := memory.New(memory.Config{})
	w1 := New(m, []Key{testKey(1, 0x01)}, Strict)
	require.NoError(t, w1.Put(ctx, "k", map[string]any{"v": 1.0}, "", nil))

	w2 := New(m, []Key{testKey(2, 0x02)}, Lenient)
	got, err := w2.Get(ctx, "k", "")
	require.NoError(t, err)
	require.Contains(t, got, encryptedField)
}
