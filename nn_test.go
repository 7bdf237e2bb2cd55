package nn

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allKinds = []Kind{KindVPTree, KindGrid, KindLinear}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New("octree", testConfig(2))
	assert.ErrorIs(t, err, ErrUnknownKind)

	_, err = Build("octree", testConfig(2), nil)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestNew_InvalidConfig(t *testing.T) {
	for _, kind := range allKinds {
		_, err := New(kind, Config{})
		assert.ErrorIs(t, err, ErrInvalidConfig, "kind %s", kind)
	}
}

func TestNew_UninstrumentedByDefault(t *testing.T) {
	idx, err := New(KindVPTree, testConfig(2))
	require.NoError(t, err)
	assert.IsType(t, &VPTree{}, idx)

	cfg := testConfig(2)
	cfg.Metrics = &BasicMetricsCollector{}
	idx, err = New(KindVPTree, cfg)
	require.NoError(t, err)
	assert.IsType(t, &instrumented{}, idx)
	assert.IsType(t, &VPTree{}, unwrap(idx))
}

// All backends must agree on every query over the same mutation history.
func TestIndex_BackendsAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	pts := generatePoints(rng, 700, 2)

	indexes := make(map[Kind]Index)
	elements := make(map[Kind][]*Element)
	for _, kind := range allKinds {
		cfg := testConfig(2)
		cfg.CellSize = 4
		els := makeElements(clonePoints(pts))
		idx, err := Build(kind, cfg, els)
		require.NoError(t, err, "kind %s", kind)
		assert.Equal(t, len(pts), idx.Len())
		assert.Equal(t, 2, idx.Dim())
		indexes[kind], elements[kind] = idx, els
	}

	removed := rng.Perm(len(pts))[:200]
	moved := rng.Perm(len(pts))[:150]
	movedTo := generatePoints(rng, len(moved), 2)
	for _, kind := range allKinds {
		idx, els := indexes[kind], elements[kind]
		for _, i := range removed {
			require.NoError(t, idx.Remove(els[i]))
		}
		for j, i := range moved {
			if !els[i].Member() {
				continue
			}
			copy(els[i].Point(), movedTo[j])
			require.NoError(t, idx.Update(els[i]))
		}
	}

	var live []*Element
	for _, el := range elements[KindLinear] {
		if el.Member() {
			live = append(live, el)
		}
	}
	for _, kind := range allKinds {
		assert.Equal(t, len(live), indexes[kind].Len(), "kind %s", kind)
	}

	out := make([]*Element, 20)
	for q := 0; q < 200; q++ {
		query := generatePoints(rng, 1, 2)[0]
		k := 1 + q%20
		want := bruteForceDists(live, query, k, EuclideanMetric{})
		for _, kind := range allKinds {
			idx := indexes[kind]
			ns, err := idx.Search(query, k)
			require.NoError(t, err, "kind %s", kind)
			requireDists(t, ns, want, query, EuclideanMetric{})

			n, err := idx.Nearest(query, k, out)
			require.NoError(t, err)
			require.Equal(t, len(want), n)
			for i := 0; i < n; i++ {
				assert.InDelta(t, want[i], EuclideanMetric{}.Distance(query, out[i].Point()), floatTol, "kind %s", kind)
			}

			ns, err = idx.Within(query, 6)
			require.NoError(t, err)
			requireDists(t, ns, bruteForceWithin(live, query, 6, EuclideanMetric{}), query, EuclideanMetric{})
		}
	}
}

func TestBuild_FailureDetachesHandles(t *testing.T) {
	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			els := makeElements([][]float64{{0, 0}, {1, 1}, {2, 2}})
			els = append(els, NewElement([]float64{1, 2, 3}, nil))
			_, err := Build(kind, testConfig(2), els)
			var dm *ErrDimensionMismatch
			require.ErrorAs(t, err, &dm)
			for _, el := range els {
				assert.False(t, el.Member())
			}
		})
	}
}

func TestIndex_Reset(t *testing.T) {
	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			els := makeElements(generatePoints(rand.New(rand.NewSource(1)), 50, 2))
			idx, err := Build(kind, testConfig(2), els)
			require.NoError(t, err)

			idx.Reset()
			assert.Equal(t, 0, idx.Len())
			ns, err := idx.Search([]float64{0, 0}, 3)
			require.NoError(t, err)
			assert.Empty(t, ns)

			for _, el := range els {
				require.NoError(t, idx.Add(el))
			}
			assert.Equal(t, 50, idx.Len())
		})
	}
}

func clonePoints(pts [][]float64) [][]float64 {
	out := make([][]float64, len(pts))
	for i, p := range pts {
		out[i] = append([]float64(nil), p...)
	}
	return out
}

func TestIndex_WithinUnboundedRadius(t *testing.T) {
	pts := [][]float64{{0, 0}, {3, -4}, {1e6, 2e6}}
	for _, kind := range allKinds {
		t.Run(string(kind), func(t *testing.T) {
			idx, err := Build(kind, testConfig(2), makeElements(clonePoints(pts)))
			require.NoError(t, err)

			for _, r := range []float64{math.Inf(1), 1e20, math.MaxFloat64} {
				ns, err := idx.Within([]float64{0, 0}, r)
				require.NoError(t, err, "radius %v", r)
				require.Len(t, ns, 3, "radius %v", r)
				assert.Equal(t, []float64{0, 0}, ns[0].Element.Point())
				assert.InDelta(t, 5, ns[1].Dist, floatTol)
			}

			ns, err := idx.Within([]float64{0, 0}, 5)
			require.NoError(t, err)
			assert.Len(t, ns, 2)
		})
	}
}
