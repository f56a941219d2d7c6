package stats

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/maximhq/kvs/stores/memory"
	"github.com/maximhq/kvs/wrappers/statistics"
)

func TestRegistererCollectsStatisticsSnapshot(t *testing.T) {
	ctx := context.Background()
	w := statistics.New(memory.New(memory.Config{}))
	require.NoError(t, w.Put(ctx, "k", map[string]any{"v": 1.0}, "col", nil))
	_, err := w.Get(ctx, "k", "col")
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	require.NoError(t, reg.Register(NewRegisterer(w)))

	families, err := reg.Gather()
	require.NoError(t, err)

	var found bool
	for _, mf := range families {
		if mf.GetName() == "kvs_operation_count" {
			found = true
			for _, m := range mf.GetMetric() {
				require.NotNil(t, m.GetCounter())
			}
		}
	}
	require.True(t, found)
}
