package nn

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

const floatTol = 1e-9

func generatePoints(rng *rand.Rand, n, dims int) [][]float64 {
	pts := make([][]float64, n)
	for i := range pts {
		pts[i] = make([]float64, dims)
		for j := range pts[i] {
			pts[i][j] = rng.Float64() * 100
		}
	}
	return pts
}

func makeElements(pts [][]float64) []*Element {
	els := make([]*Element, len(pts))
	for i, p := range pts {
		els[i] = NewElement(p, i)
	}
	return els
}

// bruteForceDists returns the k smallest distances from q to els, sorted.
func bruteForceDists(els []*Element, q []float64, k int, metric DistanceMetric) []float64 {
	dists := make([]float64, len(els))
	for i, el := range els {
		dists[i] = metric.Distance(q, el.Point())
	}
	sort.Float64s(dists)
	return dists[:min(k, len(dists))]
}

// bruteForceWithin returns every distance from q to els that is <= radius.
func bruteForceWithin(els []*Element, q []float64, radius float64, metric DistanceMetric) []float64 {
	var out []float64
	for _, el := range els {
		if d := metric.Distance(q, el.Point()); d <= radius {
			out = append(out, d)
		}
	}
	sort.Float64s(out)
	return out
}

// requireDists checks that ns is sorted ascending, that each reported
// distance is the true distance of its element, and that the multiset of
// distances matches want.
func requireDists(t *testing.T, ns []Neighbor, want []float64, q []float64, metric DistanceMetric) {
	t.Helper()
	require.Len(t, ns, len(want))
	for i, n := range ns {
		require.InDelta(t, metric.Distance(q, n.Element.Point()), n.Dist, floatTol, "result %d distance", i)
		require.InDelta(t, want[i], n.Dist, floatTol, "result %d", i)
		if i > 0 {
			require.LessOrEqual(t, ns[i-1].Dist, n.Dist, "results out of order at %d", i)
		}
	}
}

func testConfig(dims int) Config {
	cfg := DefaultConfig()
	cfg.Dim = dims
	cfg.Seed = 42
	return cfg
}

func mustVPTree(t *testing.T, cfg Config, els []*Element) *VPTree {
	t.Helper()
	tree, err := NewVPTree(cfg)
	require.NoError(t, err)
	for _, el := range els {
		require.NoError(t, tree.Add(el))
	}
	require.NoError(t, tree.validate())
	return tree
}
