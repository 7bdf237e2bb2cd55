package nn

import (
	"context"
	"fmt"
	"math/rand"
)

// VPTree is a vantage-point tree over caller-owned element handles.
//
// Each internal node holds a vantage point and a radius; its left subtree
// contains the elements within radius of the vantage point and its right
// subtree the elements at or beyond it. Leaves store up to MaxSize handles.
// The tree supports online Add, Remove and Update in addition to bulk
// construction.
//
// Nodes live in an arena and reference each other by slot; handles record
// the slot and generation of the leaf that holds them.
//
// A VPTree is not safe for concurrent mutation. Concurrent Nearest, Search
// and Within calls are safe while no mutation is in progress.
type VPTree struct {
	cfg    Config
	metric DistanceMetric
	rng    *rand.Rand
	log    *Logger
	nodes  arena[vpNode]
	root   int32
	size   int
}

// vpNode is either a leaf (left and right are noSlot) or an internal node
// with both children set and an empty bucket.
type vpNode struct {
	parent, left, right int32
	vp                  []float64 // copy of the vantage point's coordinates
	radius              float64
	bucket              []*Element
	count               int // elements in the subtree
}

func (n *vpNode) isLeaf() bool { return n.left == noSlot }

// NewVPTree returns an empty tree.
func NewVPTree(cfg Config) (*VPTree, error) {
	cfg, err := prepareConfig(cfg)
	if err != nil {
		return nil, err
	}
	t := &VPTree{
		cfg:    cfg,
		metric: cfg.Metric,
		rng:    cfg.random(),
		log:    cfg.Logger,
	}
	if t.log == nil {
		t.log = NoopLogger()
	}
	t.root = t.newLeaf(nil, noSlot)
	return t, nil
}

// BuildVPTree builds a balanced tree over els in one pass. Every handle must
// be initialized, not yet a member of any index, and appear only once.
// No handle is modified if validation fails.
func BuildVPTree(cfg Config, els []*Element) (*VPTree, error) {
	t, err := NewVPTree(cfg)
	if err != nil {
		return nil, err
	}
	if err := t.bulkLoad(els); err != nil {
		return nil, err
	}
	t.log.LogBuild(context.Background(), len(els), nil)
	return t, nil
}

func (t *VPTree) bulkLoad(els []*Element) error {
	seen := make(map[*Element]struct{}, len(els))
	for i, el := range els {
		if err := checkAddable(el, t.cfg.Dim); err != nil {
			return fmt.Errorf("nn: element %d: %w", i, err)
		}
		if _, dup := seen[el]; dup {
			return fmt.Errorf("nn: element %d: %w: duplicate handle", i, ErrAlreadyMember)
		}
		seen[el] = struct{}{}
	}

	old := t.root
	t.root = t.build(append([]*Element(nil), els...), noSlot)
	t.freeSubtree(old)
	t.size = len(els)
	return nil
}

// Len returns the number of elements in the tree.
func (t *VPTree) Len() int { return t.size }

// Dim returns the configured dimensionality.
func (t *VPTree) Dim() int { return t.cfg.Dim }

// Add inserts el, splitting the leaf it lands in when the leaf exceeds
// MaxSize.
func (t *VPTree) Add(el *Element) error {
	if err := checkAddable(el, t.cfg.Dim); err != nil {
		return err
	}
	t.insert(el)
	return nil
}

// insert descends along a single path to a leaf: left when the distance to
// the vantage point is within the radius, right otherwise.
func (t *VPTree) insert(el *Element) {
	id := t.root
	for {
		n := t.nodes.at(id)
		if n.isLeaf() {
			break
		}
		if sanitizeDist(t.metric.Distance(n.vp, el.point)) <= n.radius {
			id = n.left
		} else {
			id = n.right
		}
	}

	n := t.nodes.at(id)
	el.attach(t, id, t.nodes.gen(id), len(n.bucket))
	n.bucket = append(n.bucket, el)
	t.size++
	t.adjustCounts(id, 1)

	if len(n.bucket) > t.cfg.MaxSize {
		id = t.split(id)
	}
	t.checkBalance(id)
}

// split replaces an overfull leaf with a freshly built subtree. The new
// subtree is complete before it is linked into the parent.
func (t *VPTree) split(id int32) int32 {
	n := t.nodes.at(id)
	parent := n.parent
	els := append([]*Element(nil), n.bucket...)

	sub := t.build(els, parent)
	t.replaceChild(parent, id, sub)
	t.nodes.release(id)
	t.log.LogSplit(context.Background(), len(els), t.nodes.at(sub).radius)
	return sub
}

// adjustCounts adds delta to the element count of id and its ancestors.
func (t *VPTree) adjustCounts(id int32, delta int) {
	for ; id != noSlot; id = t.nodes.at(id).parent {
		t.nodes.at(id).count += delta
	}
}

// unbalanced reports whether one child of internal node n holds more than
// MaxImbalance of its elements.
func (t *VPTree) unbalanced(n *vpNode) bool {
	if n.isLeaf() || n.count-t.cfg.MaxSize <= t.cfg.MaxSize {
		return false
	}
	heavy := max(t.nodes.at(n.left).count, t.nodes.at(n.right).count)
	return float64(heavy) > t.cfg.MaxImbalance*float64(n.count)
}

// checkBalance rebuilds the topmost unbalanced subtree on the path from id
// to the root. Mutations only ever unbalance that path.
func (t *VPTree) checkBalance(id int32) {
	top := noSlot
	for ; id != noSlot; id = t.nodes.at(id).parent {
		if t.unbalanced(t.nodes.at(id)) {
			top = id
		}
	}
	if top == noSlot {
		return
	}
	n := t.nodes.at(top)
	parent := n.parent
	els := t.collect(top, make([]*Element, 0, n.count))
	sub := t.build(els, parent)
	t.replaceChild(parent, top, sub)
	t.freeSubtree(top)
	t.log.LogRebuild(context.Background(), len(els))
}

// Remove unlinks el using its back-reference. A non-root leaf that drops
// below MinSize is dissolved: its sibling takes the parent's place and the
// leaf's remaining elements are reinserted from the root.
func (t *VPTree) Remove(el *Element) error {
	id, err := t.owningLeaf(el)
	if err != nil {
		return err
	}
	n := t.nodes.at(id)
	n.bucket = bucketRemove(n.bucket, el.pos)
	el.detach()
	t.size--
	t.adjustCounts(id, -1)
	t.rebalance(id)
	return nil
}

// Update relocates el after its point's coordinates changed. It is
// equivalent to Remove followed by Add.
func (t *VPTree) Update(el *Element) error {
	if _, err := t.owningLeaf(el); err != nil {
		return err
	}
	if err := checkDim(t.cfg.Dim, el.point); err != nil {
		return err
	}
	if err := t.Remove(el); err != nil {
		return err
	}
	t.insert(el)
	return nil
}

// owningLeaf resolves el's back-reference and checks it against the arena.
func (t *VPTree) owningLeaf(el *Element) (int32, error) {
	if el == nil || !el.init {
		return noSlot, ErrNotInitialized
	}
	if el.owner != t {
		return noSlot, ErrNotMember
	}
	if !t.nodes.valid(el.slot, el.gen) {
		return noSlot, fmt.Errorf("%w: stale node reference", ErrInvalidState)
	}
	n := t.nodes.at(el.slot)
	if !n.isLeaf() || el.pos < 0 || el.pos >= len(n.bucket) || n.bucket[el.pos] != el {
		return noSlot, fmt.Errorf("%w: element not found in its leaf", ErrInvalidState)
	}
	return el.slot, nil
}

// rebalance restores the MinSize bound after a removal from leaf id, then
// the balance of the path above it.
func (t *VPTree) rebalance(id int32) {
	n := t.nodes.at(id)
	if n.parent == noSlot || len(n.bucket) >= t.cfg.MinSize {
		t.checkBalance(id)
		return
	}

	parent := n.parent
	p := t.nodes.at(parent)
	sib := p.left
	if sib == id {
		sib = p.right
	}
	grand := p.parent

	orphans := append([]*Element(nil), n.bucket...)
	t.nodes.at(sib).parent = grand
	t.replaceChild(grand, parent, sib)
	t.nodes.release(id)
	t.nodes.release(parent)

	t.size -= len(orphans)
	t.adjustCounts(grand, -len(orphans))
	for _, el := range orphans {
		el.detach()
	}
	t.checkBalance(sib)
	for _, el := range orphans {
		t.insert(el)
	}
	t.log.LogMerge(context.Background(), len(orphans))
}

// replaceChild points parent's reference to old at sub instead. A noSlot
// parent means old was the root.
func (t *VPTree) replaceChild(parent, old, sub int32) {
	if parent == noSlot {
		t.root = sub
		return
	}
	p := t.nodes.at(parent)
	if p.left == old {
		p.left = sub
	} else {
		p.right = sub
	}
}

// Rebuild rebalances the whole tree from its current elements.
func (t *VPTree) Rebuild() {
	els := t.collect(t.root, make([]*Element, 0, t.size))
	old := t.root
	t.root = t.build(els, noSlot)
	t.freeSubtree(old)
	t.log.LogRebuild(context.Background(), len(els))
}

// Reset removes every element and frees all nodes. Handles are detached
// and may be added again; neither handles nor points are freed.
func (t *VPTree) Reset() {
	for i := range t.nodes.items {
		for _, el := range t.nodes.items[i].bucket {
			if el != nil {
				el.detach()
			}
		}
	}
	t.nodes.reset()
	t.size = 0
	t.root = t.newLeaf(nil, noSlot)
}

// Do calls fn for every element until fn returns true.
func (t *VPTree) Do(fn func(el *Element) (done bool)) bool {
	return t.do(t.root, fn)
}

func (t *VPTree) do(id int32, fn func(el *Element) bool) bool {
	n := t.nodes.at(id)
	if n.isLeaf() {
		for _, el := range n.bucket {
			if fn(el) {
				return true
			}
		}
		return false
	}
	return t.do(n.left, fn) || t.do(n.right, fn)
}

func (t *VPTree) collect(id int32, dst []*Element) []*Element {
	n := t.nodes.at(id)
	if n.isLeaf() {
		return append(dst, n.bucket...)
	}
	dst = t.collect(n.left, dst)
	return t.collect(n.right, dst)
}

// freeSubtree releases the nodes of a subtree without touching handles.
func (t *VPTree) freeSubtree(id int32) {
	n := t.nodes.at(id)
	left, right := n.left, n.right
	t.nodes.release(id)
	if left != noSlot {
		t.freeSubtree(left)
		t.freeSubtree(right)
	}
}

// TreeStats summarizes the shape of a VP-tree.
type TreeStats struct {
	Size    int
	Nodes   int
	Leaves  int
	Depth   int // number of edges on the longest root-leaf path
	MinLeaf int
	MaxLeaf int
}

// Stats walks the tree and reports its shape.
func (t *VPTree) Stats() TreeStats {
	s := TreeStats{Size: t.size, MinLeaf: -1}
	t.stats(t.root, 0, &s)
	return s
}

func (t *VPTree) stats(id int32, depth int, s *TreeStats) {
	n := t.nodes.at(id)
	s.Nodes++
	s.Depth = max(s.Depth, depth)
	if n.isLeaf() {
		s.Leaves++
		if s.MinLeaf < 0 || len(n.bucket) < s.MinLeaf {
			s.MinLeaf = len(n.bucket)
		}
		s.MaxLeaf = max(s.MaxLeaf, len(n.bucket))
		return
	}
	t.stats(n.left, depth+1, s)
	t.stats(n.right, depth+1, s)
}

// validate checks every structural invariant of the tree. Used by tests.
func (t *VPTree) validate() error {
	if t.nodes.at(t.root).parent != noSlot {
		return fmt.Errorf("root has a parent")
	}
	count, err := t.validateNode(t.root)
	if err != nil {
		return err
	}
	if count != t.size {
		return fmt.Errorf("tree holds %d elements, size says %d", count, t.size)
	}
	if live := t.nodes.live(); live != t.Stats().Nodes {
		return fmt.Errorf("arena has %d live slots, tree has %d nodes", live, t.Stats().Nodes)
	}
	return nil
}

func (t *VPTree) validateNode(id int32) (int, error) {
	n := t.nodes.at(id)
	if n.isLeaf() {
		if n.right != noSlot {
			return 0, fmt.Errorf("node %d: leaf with a right child", id)
		}
		if len(n.bucket) > t.cfg.MaxSize {
			return 0, fmt.Errorf("node %d: leaf holds %d > MaxSize %d", id, len(n.bucket), t.cfg.MaxSize)
		}
		if id != t.root && len(n.bucket) < t.cfg.MinSize {
			return 0, fmt.Errorf("node %d: leaf holds %d < MinSize %d", id, len(n.bucket), t.cfg.MinSize)
		}
		if n.count != len(n.bucket) {
			return 0, fmt.Errorf("node %d: leaf count %d, bucket %d", id, n.count, len(n.bucket))
		}
		for i, el := range n.bucket {
			if el.owner != t || el.slot != id || el.gen != t.nodes.gen(id) || el.pos != i {
				return 0, fmt.Errorf("node %d: element %d has a stale back-reference", id, i)
			}
		}
		return len(n.bucket), nil
	}

	if n.right == noSlot || len(n.bucket) != 0 {
		return 0, fmt.Errorf("node %d: malformed internal node", id)
	}
	for _, c := range []int32{n.left, n.right} {
		if t.nodes.at(c).parent != id {
			return 0, fmt.Errorf("node %d: child %d has parent %d", id, c, t.nodes.at(c).parent)
		}
	}
	var bad error
	t.do(n.left, func(el *Element) bool {
		if d := sanitizeDist(t.metric.Distance(n.vp, el.point)); d > n.radius {
			bad = fmt.Errorf("node %d: left element at %v beyond radius %v", id, d, n.radius)
		}
		return bad != nil
	})
	t.do(n.right, func(el *Element) bool {
		if d := sanitizeDist(t.metric.Distance(n.vp, el.point)); d < n.radius {
			bad = fmt.Errorf("node %d: right element at %v inside radius %v", id, d, n.radius)
		}
		return bad != nil
	})
	if bad != nil {
		return 0, bad
	}

	l, err := t.validateNode(n.left)
	if err != nil {
		return 0, err
	}
	r, err := t.validateNode(n.right)
	if err != nil {
		return 0, err
	}
	if n.count != l+r {
		return 0, fmt.Errorf("node %d: count %d, children hold %d", id, n.count, l+r)
	}
	return l + r, nil
}
