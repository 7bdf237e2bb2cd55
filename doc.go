// Package nn implements nearest-neighbour indexes over points in a metric
// space, centred on a dynamic vantage-point tree (VP-tree).
//
// A VP-tree recursively partitions its elements around sampled vantage
// points: each internal node keeps the median distance from its vantage
// point as a radius, with closer elements on the left and farther ones on
// the right. Queries use the triangle inequality to skip subtrees that
// cannot hold a closer element. Unlike static metric trees the VP-tree here
// supports online Add, Remove and Update: overfull leaves split in place and
// underfull leaves are dissolved into their siblings.
//
// Elements are caller-owned handles. The index stores a reference to each
// handle and its point and never copies or frees them:
//
//	cfg := nn.DefaultConfig()
//	cfg.Dim = 2
//	tree, err := nn.NewVPTree(cfg)
//	el := nn.NewElement([]float64{1, 2}, "payload")
//	err = tree.Add(el)
//	neighbors, err := tree.Search([]float64{0, 0}, 5)
//	// neighbors[i].Element, neighbors[i].Dist, nearest first
//
// After moving a point in place, call Update:
//
//	el.Point()[0] = 7
//	err = tree.Update(el)
//
// # Choosing an index
//
// [New] returns any backend behind the [Index] interface, so callers can
// switch implementations without other changes:
//
//	idx, err := nn.New(nn.KindVPTree, cfg) // any true metric, any dimension
//	idx, err := nn.New(nn.KindGrid, cfg)   // uniform cells of cfg.CellSize, low dimensions
//	idx, err := nn.New(nn.KindLinear, cfg) // exhaustive scan, any metric
//
// Setting cfg.Logger or cfg.Metrics makes New wrap the backend so each
// operation is logged and timed. See the promnn package for Prometheus.
//
// Indexes are not safe for concurrent mutation. Queries keep their scratch
// state on the call stack, so concurrent reads of an index that is not being
// mutated are safe; [SearchBatch] runs a batch of queries in parallel.
package nn
