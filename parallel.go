package nn

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Searcher is the read-only side of an Index.
type Searcher interface {
	Search(q []float64, k int) ([]Neighbor, error)
}

// SearchBatch runs Search for every query using up to workers goroutines
// and returns the results in query order. workers <= 0 means
// runtime.NumCPU(). The index must not be mutated while the batch runs.
//
// The first failing query, or cancellation of ctx, stops the batch and its
// error is returned.
func SearchBatch(ctx context.Context, idx Searcher, queries [][]float64, k, workers int) ([][]Neighbor, error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	workers = min(workers, max(len(queries), 1))

	results := make([][]Neighbor, len(queries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	// Each worker handles a contiguous range of queries; ranges don't
	// overlap, so writes to results need no synchronization.
	perWorker := (len(queries) + workers - 1) / workers
	for start := 0; start < len(queries); start += perWorker {
		end := min(start+perWorker, len(queries))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				ns, err := idx.Search(queries[i], k)
				if err != nil {
					return fmt.Errorf("nn: query %d: %w", i, err)
				}
				results[i] = ns
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
