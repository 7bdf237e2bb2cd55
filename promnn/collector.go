// Package promnn exports nearest-neighbour index metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	col, err := promnn.New(reg, "planner")
//	cfg := nn.DefaultConfig()
//	cfg.Dim = 3
//	cfg.Metrics = col
//	idx, err := nn.New(nn.KindVPTree, cfg)
package promnn

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/TrevorS/nn"
)

// Collector implements nn.MetricsCollector with Prometheus vectors labelled
// by operation and outcome.
type Collector struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
	results  prometheus.Counter
	built    prometheus.Counter
}

var _ nn.MetricsCollector = (*Collector)(nil)

// New creates a Collector and registers its metrics on reg. namespace
// prefixes every metric name and may be empty.
func New(reg prometheus.Registerer, namespace string) (*Collector, error) {
	c := &Collector{
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nn_operations_total",
				Help:      "Total number of index operations by type and result",
			},
			[]string{"op", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "nn_operation_duration_seconds",
				Help:      "Duration of index operations",
				Buckets:   []float64{1e-7, 1e-6, 1e-5, 1e-4, 0.001, 0.01, 0.1, 1},
			},
			[]string{"op"},
		),
		results: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nn_search_results_total",
			Help:      "Total number of neighbours returned by searches",
		}),
		built: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nn_build_elements_total",
			Help:      "Total number of elements loaded by bulk builds",
		}),
	}
	for _, m := range []prometheus.Collector{c.ops, c.duration, c.results, c.built} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) record(op string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	c.ops.WithLabelValues(op, result).Inc()
	c.duration.WithLabelValues(op).Observe(d.Seconds())
}

// RecordAdd implements nn.MetricsCollector.
func (c *Collector) RecordAdd(d time.Duration, err error) { c.record("add", d, err) }

// RecordRemove implements nn.MetricsCollector.
func (c *Collector) RecordRemove(d time.Duration, err error) { c.record("remove", d, err) }

// RecordUpdate implements nn.MetricsCollector.
func (c *Collector) RecordUpdate(d time.Duration, err error) { c.record("update", d, err) }

// RecordSearch implements nn.MetricsCollector.
func (c *Collector) RecordSearch(_, found int, d time.Duration, err error) {
	c.record("search", d, err)
	if err == nil {
		c.results.Add(float64(found))
	}
}

// RecordBuild implements nn.MetricsCollector.
func (c *Collector) RecordBuild(count int, d time.Duration, err error) {
	c.record("build", d, err)
	if err == nil {
		c.built.Add(float64(count))
	}
}
