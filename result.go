package nn

import (
	"container/heap"
	"math"
	"sort"
)

// insertionLimit is the largest k kept in an insertion-sorted array; larger
// result sets use a bounded max-heap.
const insertionLimit = 32

// resultSet collects query candidates. It is created per query so that
// concurrent read-only searches share no scratch state.
type resultSet struct {
	k      int     // 0 for range queries
	radius float64 // fixed cutoff of range queries
	items  []Neighbor
	heap   neighborHeap
}

func newKNNResult(k int) *resultSet {
	rs := &resultSet{k: k}
	if k <= insertionLimit {
		rs.items = make([]Neighbor, 0, k)
	} else {
		rs.heap = make(neighborHeap, 0, k)
	}
	return rs
}

func newRangeResult(radius float64) *resultSet {
	return &resultSet{radius: radius}
}

// cutoff returns the distance a candidate must beat to enter the set.
func (rs *resultSet) cutoff() float64 {
	switch {
	case rs.k == 0:
		return rs.radius
	case rs.heap != nil:
		if len(rs.heap) < rs.k {
			return math.Inf(1)
		}
		return rs.heap[0].Dist
	default:
		if len(rs.items) < rs.k {
			return math.Inf(1)
		}
		return rs.items[len(rs.items)-1].Dist
	}
}

func (rs *resultSet) offer(el *Element, d float64) {
	switch {
	case rs.k == 0:
		if d <= rs.radius {
			rs.items = append(rs.items, Neighbor{Element: el, Dist: d})
		}
	case rs.heap != nil:
		if len(rs.heap) < rs.k {
			heap.Push(&rs.heap, Neighbor{Element: el, Dist: d})
		} else if d < rs.heap[0].Dist {
			rs.heap[0] = Neighbor{Element: el, Dist: d}
			heap.Fix(&rs.heap, 0)
		}
	default:
		if len(rs.items) < rs.k {
			rs.items = append(rs.items, Neighbor{})
		} else if !(d < rs.items[len(rs.items)-1].Dist) {
			return
		}
		// Shift worse entries up one slot, dropping the last when full.
		i := len(rs.items) - 1
		for i > 0 && rs.items[i-1].Dist > d {
			rs.items[i] = rs.items[i-1]
			i--
		}
		rs.items[i] = Neighbor{Element: el, Dist: d}
	}
}

// results returns the candidates in ascending distance order.
func (rs *resultSet) results() []Neighbor {
	switch {
	case rs.k == 0:
		sort.SliceStable(rs.items, func(i, j int) bool { return rs.items[i].Dist < rs.items[j].Dist })
		return rs.items
	case rs.heap != nil:
		out := make([]Neighbor, len(rs.heap))
		for i := len(out) - 1; i >= 0; i-- {
			out[i] = heap.Pop(&rs.heap).(Neighbor)
		}
		return out
	default:
		return rs.items
	}
}

// neighborHeap is a max-heap of Neighbor (largest distance on top) used as
// a bounded priority queue for large k.
type neighborHeap []Neighbor

func (h neighborHeap) Len() int            { return len(h) }
func (h neighborHeap) Less(i, j int) bool  { return h[i].Dist > h[j].Dist }
func (h neighborHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *neighborHeap) Push(x interface{}) { *h = append(*h, x.(Neighbor)) }
func (h *neighborHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
