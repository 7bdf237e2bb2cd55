package nn

import (
	"context"
	"time"
)

// instrumented decorates an Index with per-operation logging and metrics.
type instrumented struct {
	inner   Index
	log     *Logger
	metrics MetricsCollector
}

func instrument(kind Kind, cfg Config, idx Index) Index {
	if cfg.Logger == nil && cfg.Metrics == nil {
		return idx
	}
	ins := &instrumented{inner: idx, log: cfg.Logger, metrics: cfg.Metrics}
	if ins.log == nil {
		ins.log = NoopLogger()
	}
	ins.log = ins.log.WithKind(kind)
	if ins.metrics == nil {
		ins.metrics = NoopMetricsCollector{}
	}
	return ins
}

// unwrap returns the backend behind a possibly instrumented index.
func unwrap(idx Index) Index {
	if ins, ok := idx.(*instrumented); ok {
		return ins.inner
	}
	return idx
}

func (i *instrumented) Add(el *Element) error {
	start := time.Now()
	err := i.inner.Add(el)
	i.metrics.RecordAdd(time.Since(start), err)
	i.log.LogAdd(context.Background(), i.inner.Len(), err)
	return err
}

func (i *instrumented) Remove(el *Element) error {
	start := time.Now()
	err := i.inner.Remove(el)
	i.metrics.RecordRemove(time.Since(start), err)
	i.log.LogRemove(context.Background(), i.inner.Len(), err)
	return err
}

func (i *instrumented) Update(el *Element) error {
	start := time.Now()
	err := i.inner.Update(el)
	i.metrics.RecordUpdate(time.Since(start), err)
	i.log.LogUpdate(context.Background(), i.inner.Len(), err)
	return err
}

func (i *instrumented) Nearest(q []float64, k int, out []*Element) (int, error) {
	start := time.Now()
	n, err := i.inner.Nearest(q, k, out)
	i.metrics.RecordSearch(k, n, time.Since(start), err)
	i.log.LogSearch(context.Background(), k, n, err)
	return n, err
}

func (i *instrumented) Search(q []float64, k int) ([]Neighbor, error) {
	start := time.Now()
	ns, err := i.inner.Search(q, k)
	i.metrics.RecordSearch(k, len(ns), time.Since(start), err)
	i.log.LogSearch(context.Background(), k, len(ns), err)
	return ns, err
}

func (i *instrumented) Within(q []float64, radius float64) ([]Neighbor, error) {
	start := time.Now()
	ns, err := i.inner.Within(q, radius)
	i.metrics.RecordSearch(0, len(ns), time.Since(start), err)
	i.log.LogSearch(context.Background(), 0, len(ns), err)
	return ns, err
}

func (i *instrumented) Len() int { return i.inner.Len() }
func (i *instrumented) Dim() int { return i.inner.Dim() }
func (i *instrumented) Reset()   { i.inner.Reset() }

func (i *instrumented) recordBuild(ctx context.Context, count int, duration time.Duration, err error) {
	i.metrics.RecordBuild(count, duration, err)
	i.log.LogBuild(ctx, count, err)
}
