package sqlstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/storetest"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	b, err := New(Config{Driver: DriverSQLite, DSN: "file::memory:"})
	require.NoError(t, err)

	// Pin the pool to a single connection: SQLite's ":memory:" database is
	// private to the connection that created it, so a second pooled
	// connection would see an empty schema.
	sqlDB, err := b.raw.db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	return b
}

func TestSQLStoreConformance(t *testing.T) {
	storetest.RunConformance(t, func() store.Store {
		return newTestBackend(t)
	})
}

func TestSQLStorePutOverwritesExisting(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.Put(ctx, "k1", map[string]any{"v": 1.0}, "", nil))
	require.NoError(t, b.Put(ctx, "k1", map[string]any{"v": 2.0}, "", nil))

	got, err := b.Get(ctx, "k1", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"v": 2.0}, got)
}

func TestSQLStoreEnumerateCollections(t *testing.T) {
	ctx := context.Background()
	b := newTestBackend(t)

	require.NoError(t, b.Put(ctx, "a", map[string]any{}, "one", nil))
	require.NoError(t, b.Put(ctx, "b", map[string]any{}, "two", nil))

	colls, err := b.EnumerateCollections(ctx, 0)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one", "two"}, colls)
}
