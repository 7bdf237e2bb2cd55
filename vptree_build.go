package nn

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// build recursively partitions els and returns the slot of the subtree
// root, whose parent is set to parent. els is reordered.
//
// A set of at most MaxSize elements becomes a leaf. Larger sets are split
// around a sampled vantage point: elements are stably sorted by distance to
// it, the first half goes left and the radius is the distance of the last
// left element. Splitting by position rather than by value keeps the tree
// balanced and guarantees termination when distances cannot discriminate,
// e.g. for coincident points.
func (t *VPTree) build(els []*Element, parent int32) int32 {
	if len(els) <= t.cfg.MaxSize {
		return t.newLeaf(els, parent)
	}

	vp := append([]float64(nil), t.selectVantage(els)...)

	dists := make([]float64, len(els))
	for i, el := range els {
		dists[i] = sanitizeDist(t.metric.Distance(vp, el.point))
	}
	sort.Stable(byDist{els: els, dists: dists})

	mid := len(els) / 2
	id := t.nodes.alloc()
	*t.nodes.at(id) = vpNode{
		parent: parent,
		left:   noSlot,
		right:  noSlot,
		vp:     vp,
		radius: dists[mid-1],
		count:  len(els),
	}

	left := t.build(els[:mid], id)
	right := t.build(els[mid:], id)

	n := t.nodes.at(id)
	n.left, n.right = left, right
	return id
}

func (t *VPTree) newLeaf(els []*Element, parent int32) int32 {
	id := t.nodes.alloc()
	gen := t.nodes.gen(id)
	bucket := make([]*Element, len(els))
	for i, el := range els {
		bucket[i] = el
		el.attach(t, id, gen, i)
	}
	*t.nodes.at(id) = vpNode{
		parent: parent,
		left:   noSlot,
		right:  noSlot,
		radius: math.Inf(1),
		bucket: bucket,
		count:  len(els),
	}
	return id
}

// selectVantage picks, among SampleSize random candidates, the one whose
// distances to a second random sample have the largest variance. When the
// sample would cover the whole set every element is considered.
func (t *VPTree) selectVantage(els []*Element) []float64 {
	candidates, probes := els, els
	if s := t.cfg.SampleSize; s < len(els) {
		candidates = t.sample(els, s)
		probes = t.sample(els, s)
	}

	best := candidates[0].point
	bestVar := math.Inf(-1)
	dists := make([]float64, len(probes))
	for _, c := range candidates {
		for i, p := range probes {
			dists[i] = sanitizeDist(t.metric.Distance(c.point, p.point))
		}
		if v := stat.PopVariance(dists, nil); v > bestVar {
			best, bestVar = c.point, v
		}
	}
	return best
}

// sample draws s distinct elements using the tree's random source.
func (t *VPTree) sample(els []*Element, s int) []*Element {
	out := make([]*Element, s)
	for i, j := range t.rng.Perm(len(els))[:s] {
		out[i] = els[j]
	}
	return out
}

// byDist sorts elements together with their distances.
type byDist struct {
	els   []*Element
	dists []float64
}

func (b byDist) Len() int           { return len(b.els) }
func (b byDist) Less(i, j int) bool { return b.dists[i] < b.dists[j] }
func (b byDist) Swap(i, j int) {
	b.els[i], b.els[j] = b.els[j], b.els[i]
	b.dists[i], b.dists[j] = b.dists[j], b.dists[i]
}
