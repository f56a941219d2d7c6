// Package stats adapts the statistics wrapper's snapshot into a Prometheus
// collector, grounded on bifrost's transports/bifrost-http/plugins/telemetry
// use of github.com/prometheus/client_golang for metrics export.
package stats

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/maximhq/kvs/wrappers/statistics"
)

// Registerer exposes a statistics.Wrapper's per-collection, per-operation
// counters as Prometheus counters, named kvs_operation_count/hit/miss, labeled
// by collection and operation.
type Registerer struct {
	wrapper *statistics.Wrapper

	count *prometheus.Desc
	hit   *prometheus.Desc
	miss  *prometheus.Desc
}

// NewRegisterer builds a Registerer over wrapper. Register it with a
// prometheus.Registry (or prometheus.MustRegister) to expose /metrics.
func NewRegisterer(wrapper *statistics.Wrapper) *Registerer {
	labels := []string{"collection", "operation"}
	return &Registerer{
		wrapper: wrapper,
		count:   prometheus.NewDesc("kvs_operation_count", "Total operations performed per collection and operation.", labels, nil),
		hit:     prometheus.NewDesc("kvs_operation_hit", "Operations that resulted in a hit.", labels, nil),
		miss:    prometheus.NewDesc("kvs_operation_miss", "Operations that resulted in a miss.", labels, nil),
	}
}

func (r *Registerer) Describe(ch chan<- *prometheus.Desc) {
	ch <- r.count
	ch <- r.hit
	ch <- r.miss
}

func (r *Registerer) Collect(ch chan<- prometheus.Metric) {
	for collection, snap := range r.wrapper.Stats() {
		for op, c := range snap {
			ch <- prometheus.MustNewConstMetric(r.count, prometheus.CounterValue, float64(c.Count), collection, op)
			ch <- prometheus.MustNewConstMetric(r.hit, prometheus.CounterValue, float64(c.Hit), collection, op)
			ch <- prometheus.MustNewConstMetric(r.miss, prometheus.CounterValue, float64(c.Miss), collection, op)
		}
	}
}

var _ prometheus.Collector = (*Registerer)(nil)
