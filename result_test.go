package nn

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultSet_InsertionAndHeapAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	dists := make([]float64, 500)
	els := make([]*Element, len(dists))
	for i := range dists {
		dists[i] = rng.Float64() * 10
		els[i] = NewElement([]float64{dists[i]}, i)
	}
	sorted := append([]float64(nil), dists...)
	sort.Float64s(sorted)

	for _, k := range []int{1, 5, insertionLimit, insertionLimit + 1, 128} {
		rs := newKNNResult(k)
		if k <= insertionLimit {
			assert.Nil(t, rs.heap, "k=%d", k)
		} else {
			assert.NotNil(t, rs.heap, "k=%d", k)
		}
		for i, d := range dists {
			rs.offer(els[i], d)
		}
		got := rs.results()
		require.Len(t, got, k)
		for i, n := range got {
			assert.Equal(t, sorted[i], n.Dist, "k=%d result %d", k, i)
			assert.Equal(t, n.Dist, n.Element.Point()[0])
		}
	}
}

func TestResultSet_Cutoff(t *testing.T) {
	for _, k := range []int{2, insertionLimit + 1} {
		rs := newKNNResult(k)
		assert.True(t, math.IsInf(rs.cutoff(), 1), "empty set has no cutoff")
		for i := 0; i < k; i++ {
			rs.offer(NewElement(nil, nil), float64(10+i))
		}
		assert.Equal(t, float64(10+k-1), rs.cutoff())

		rs.offer(NewElement(nil, nil), 1)
		assert.Equal(t, float64(10+k-2), rs.cutoff())

		// Ties with the current worst do not displace it.
		rs.offer(NewElement(nil, nil), rs.cutoff())
		assert.Len(t, rs.results(), k)
	}
}

func TestResultSet_TiesKeepVisitOrder(t *testing.T) {
	a := NewElement(nil, "a")
	b := NewElement(nil, "b")
	c := NewElement(nil, "c")

	rs := newKNNResult(2)
	rs.offer(a, 1)
	rs.offer(b, 1)
	rs.offer(c, 1)
	got := rs.results()
	require.Len(t, got, 2)
	assert.Same(t, a, got[0].Element)
	assert.Same(t, b, got[1].Element)
}

func TestResultSet_Range(t *testing.T) {
	rs := newRangeResult(2)
	assert.Equal(t, 2.0, rs.cutoff())
	for i, d := range []float64{3, 0.5, 2, 2.5, 1} {
		rs.offer(NewElement(nil, i), d)
	}
	got := rs.results()
	require.Len(t, got, 3)
	assert.Equal(t, []float64{0.5, 1, 2}, []float64{got[0].Dist, got[1].Dist, got[2].Dist})
}
