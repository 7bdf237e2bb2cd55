package nn

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operation timings from an instrumented index.
// Implementations must be safe for concurrent use because searches may run
// in parallel. See the promnn package for a Prometheus implementation.
type MetricsCollector interface {
	// RecordAdd is called after each Add.
	RecordAdd(duration time.Duration, err error)

	// RecordRemove is called after each Remove.
	RecordRemove(duration time.Duration, err error)

	// RecordUpdate is called after each Update.
	RecordUpdate(duration time.Duration, err error)

	// RecordSearch is called after each Nearest or Search with the requested
	// k and the number of results found.
	RecordSearch(k, found int, duration time.Duration, err error)

	// RecordBuild is called after each bulk build of count elements.
	RecordBuild(count int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration, error)              {}
func (NoopMetricsCollector) RecordRemove(time.Duration, error)           {}
func (NoopMetricsCollector) RecordUpdate(time.Duration, error)           {}
func (NoopMetricsCollector) RecordSearch(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordBuild(int, time.Duration, error)       {}

// BasicMetricsCollector keeps in-memory counters. Useful for tests and
// debugging without an external monitoring system.
type BasicMetricsCollector struct {
	AddCount         atomic.Int64
	AddErrors        atomic.Int64
	RemoveCount      atomic.Int64
	RemoveErrors     atomic.Int64
	UpdateCount      atomic.Int64
	UpdateErrors     atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchResults    atomic.Int64
	SearchTotalNanos atomic.Int64
	BuildCount       atomic.Int64
	BuildElements    atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(_ time.Duration, err error) {
	b.AddCount.Add(1)
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(_ time.Duration, err error) {
	b.RemoveCount.Add(1)
	if err != nil {
		b.RemoveErrors.Add(1)
	}
}

// RecordUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdate(_ time.Duration, err error) {
	b.UpdateCount.Add(1)
	if err != nil {
		b.UpdateErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_, found int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
		return
	}
	b.SearchResults.Add(int64(found))
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(count int, _ time.Duration, err error) {
	b.BuildCount.Add(1)
	if err == nil {
		b.BuildElements.Add(int64(count))
	}
}
