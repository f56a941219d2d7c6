package dynamostore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/store"
	"github.com/maximhq/kvs/storetest"
)

// newTestBackend skips the test unless a local DynamoDB endpoint with a
// "kvs_test" table already provisioned is reachable, mirroring the escape
// hatch used for esstore/redisstore.
func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	b, err := New(ctx, Config{TableName: "kvs_test"})
	require.NoError(t, err)
	if err := b.raw.SetupOnce(ctx); err != nil {
		t.Skip("dynamodb not reachable or kvs_test table missing, skipping")
	}
	return b
}

func TestDynamoStoreConformance(t *testing.T) {
	storetest.RunConformance(t, func() store.Store {
		return newTestBackend(t)
	})
}
