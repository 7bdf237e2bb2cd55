package nn

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
)

// Grid is a uniform bucket grid: space is cut into hypercubes of edge
// CellSize and each occupied cube keeps the handles whose points fall in it.
//
// Nearest expands rings of cells around the query until the k-th distance
// found is no larger than the distance to the nearest unvisited ring. This
// is only sound for metrics that are never smaller than the Chebyshev
// distance, so NewGrid accepts the built-in metrics only.
//
// A Grid suits low-dimensional data with a known scale. Like VPTree it is not
// safe for concurrent mutation; concurrent queries are safe.
type Grid struct {
	cfg    Config
	metric DistanceMetric
	log    *Logger
	cells  arena[gridCell]
	index  map[string]int32
	lo, hi []int64 // bounding box of every cell ever occupied
	size   int
}

type gridCell struct {
	key    string
	coord  []int64
	bucket []*Element
}

// maxCellCoord bounds cell coordinates so they convert exactly to int64.
const maxCellCoord = 1 << 52

// NewGrid returns an empty grid.
func NewGrid(cfg Config) (*Grid, error) {
	cfg, err := prepareConfig(cfg)
	if err != nil {
		return nil, err
	}
	if !dominatesChebyshev(cfg.Metric) {
		return nil, fmt.Errorf("%w: grid index requires a built-in metric, got %T", ErrInvalidConfig, cfg.Metric)
	}
	g := &Grid{
		cfg:    cfg,
		metric: cfg.Metric,
		log:    cfg.Logger,
		index:  make(map[string]int32),
	}
	if g.log == nil {
		g.log = NoopLogger()
	}
	return g, nil
}

// Len returns the number of elements in the grid.
func (g *Grid) Len() int { return g.size }

// Dim returns the configured dimensionality.
func (g *Grid) Dim() int { return g.cfg.Dim }

// cellOf returns the integer cell coordinates of p.
func (g *Grid) cellOf(p []float64) ([]int64, error) {
	c := make([]int64, len(p))
	for i, v := range p {
		f := math.Floor(v / g.cfg.CellSize)
		if math.IsNaN(f) || math.Abs(f) > maxCellCoord {
			return nil, ErrNonFinite
		}
		c[i] = int64(f)
	}
	return c, nil
}

func cellKey(c []int64) string {
	buf := make([]byte, 0, 8*len(c))
	for _, v := range c {
		buf = binary.BigEndian.AppendUint64(buf, uint64(v))
	}
	return string(buf)
}

// Add inserts el into the cell containing its point.
func (g *Grid) Add(el *Element) error {
	if err := checkAddable(el, g.cfg.Dim); err != nil {
		return err
	}
	c, err := g.cellOf(el.point)
	if err != nil {
		return err
	}
	g.place(el, c)
	return nil
}

func (g *Grid) place(el *Element, c []int64) {
	key := cellKey(c)
	id, ok := g.index[key]
	if !ok {
		id = g.cells.alloc()
		*g.cells.at(id) = gridCell{key: key, coord: c}
		g.index[key] = id
		g.grow(c)
	}
	cell := g.cells.at(id)
	el.attach(g, id, g.cells.gen(id), len(cell.bucket))
	cell.bucket = append(cell.bucket, el)
	g.size++
}

func (g *Grid) grow(c []int64) {
	if g.lo == nil {
		g.lo = append([]int64(nil), c...)
		g.hi = append([]int64(nil), c...)
		return
	}
	for i, v := range c {
		g.lo[i] = min(g.lo[i], v)
		g.hi[i] = max(g.hi[i], v)
	}
}

// Remove unlinks el from its cell, releasing the cell when it empties.
func (g *Grid) Remove(el *Element) error {
	id, err := g.owningCell(el)
	if err != nil {
		return err
	}
	cell := g.cells.at(id)
	cell.bucket = bucketRemove(cell.bucket, el.pos)
	el.detach()
	g.size--
	if len(cell.bucket) == 0 {
		delete(g.index, cell.key)
		g.cells.release(id)
	}
	return nil
}

// Update moves el to the cell of its current point.
func (g *Grid) Update(el *Element) error {
	if _, err := g.owningCell(el); err != nil {
		return err
	}
	if err := checkDim(g.cfg.Dim, el.point); err != nil {
		return err
	}
	c, err := g.cellOf(el.point)
	if err != nil {
		return err
	}
	if err := g.Remove(el); err != nil {
		return err
	}
	g.place(el, c)
	return nil
}

func (g *Grid) owningCell(el *Element) (int32, error) {
	if el == nil || !el.init {
		return noSlot, ErrNotInitialized
	}
	if el.owner != g {
		return noSlot, ErrNotMember
	}
	if !g.cells.valid(el.slot, el.gen) {
		return noSlot, fmt.Errorf("%w: stale cell reference", ErrInvalidState)
	}
	cell := g.cells.at(el.slot)
	if el.pos < 0 || el.pos >= len(cell.bucket) || cell.bucket[el.pos] != el {
		return noSlot, fmt.Errorf("%w: element not found in its cell", ErrInvalidState)
	}
	return el.slot, nil
}

// Reset removes every element and releases all cells.
func (g *Grid) Reset() {
	for i := range g.cells.items {
		for _, el := range g.cells.items[i].bucket {
			el.detach()
		}
	}
	g.cells.reset()
	clear(g.index)
	g.lo, g.hi = nil, nil
	g.size = 0
}

// Nearest writes the k elements closest to q into out, nearest first, and
// returns how many were found.
func (g *Grid) Nearest(q []float64, k int, out []*Element) (int, error) {
	if err := checkOut(k, out); err != nil {
		return 0, err
	}
	ns, err := g.Search(q, k)
	if err != nil {
		return 0, err
	}
	return copyElements(out, ns), nil
}

// Search returns the k nearest elements to q with their distances.
//
// Rings are expanded only while that is cheaper than reading every occupied
// cell; past that point the cells not reached yet are scanned directly, so a
// query never costs more than a pass over the occupied cells.
func (g *Grid) Search(q []float64, k int) ([]Neighbor, error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	if err := checkDim(g.cfg.Dim, q); err != nil {
		return nil, err
	}
	qc, err := g.cellOf(q)
	if err != nil {
		return nil, err
	}
	rs := newKNNResult(min(k, max(g.size, 1)))
	if g.size == 0 {
		return rs.results(), nil
	}

	// Rings closer than r0 lie entirely outside the occupied box.
	var r0, rmax int64
	for i := range qc {
		r0 = max(r0, g.lo[i]-qc[i], qc[i]-g.hi[i])
		rmax = max(rmax, abs64(g.lo[i]-qc[i]), abs64(g.hi[i]-qc[i]))
	}

	budget := len(g.index)
	probes, visited := 0, 0
	lo := make([]int64, len(qc))
	hi := make([]int64, len(qc))
	for r := r0; r <= rmax; r++ {
		for i := range qc {
			lo[i] = max(qc[i]-r, g.lo[i])
			hi[i] = min(qc[i]+r, g.hi[i])
		}
		cost := max(1, boxVolume(lo, hi, budget))
		if probes+cost > budget {
			g.scanCells(func(c *gridCell) bool { return chebyshev(c.coord, qc) >= r }, q, rs)
			break
		}
		probes += cost
		g.visitRing(qc, r, lo, hi, func(cell *gridCell) {
			for _, el := range cell.bucket {
				rs.offer(el, g.metric.Distance(q, el.point))
			}
			visited += len(cell.bucket)
		})
		if visited == g.size || rs.cutoff() <= float64(r)*g.cfg.CellSize {
			break
		}
	}
	return rs.results(), nil
}

// scanCells offers every element of the occupied cells accepted by keep,
// in slot order.
func (g *Grid) scanCells(keep func(*gridCell) bool, q []float64, rs *resultSet) {
	for i := range g.cells.items {
		c := &g.cells.items[i]
		if len(c.bucket) == 0 || !keep(c) {
			continue
		}
		for _, el := range c.bucket {
			rs.offer(el, g.metric.Distance(q, el.point))
		}
	}
}

// visitRing calls fn for every occupied cell inside [lo, hi] whose Chebyshev
// distance from qc is exactly r.
func (g *Grid) visitRing(qc []int64, r int64, lo, hi []int64, fn func(*gridCell)) {
	c := make([]int64, len(qc))
	var walk func(dim int, onRing bool)
	walk = func(dim int, onRing bool) {
		if dim == len(qc) {
			if !onRing {
				return
			}
			if id, ok := g.index[cellKey(c)]; ok {
				fn(g.cells.at(id))
			}
			return
		}
		if !onRing && dim == len(qc)-1 {
			// Only the two faces of the last axis can still reach the ring.
			for _, v := range []int64{qc[dim] - r, qc[dim] + r} {
				if v >= lo[dim] && v <= hi[dim] {
					c[dim] = v
					walk(dim+1, true)
				}
				if r == 0 {
					break
				}
			}
			return
		}
		for v := lo[dim]; v <= hi[dim]; v++ {
			c[dim] = v
			walk(dim+1, onRing || abs64(v-qc[dim]) == r)
		}
	}
	walk(0, false)
}

// Within returns every element within radius of q, in ascending distance
// order.
func (g *Grid) Within(q []float64, radius float64) ([]Neighbor, error) {
	if err := checkDim(g.cfg.Dim, q); err != nil {
		return nil, err
	}
	if _, err := g.cellOf(q); err != nil {
		return nil, err
	}
	rs := newRangeResult(radius)
	if g.size == 0 || !(radius >= 0) {
		return rs.results(), nil
	}

	// The query box is clipped to the occupied box in float space, so an
	// unbounded radius never needs a cell of its own. q is finite, which
	// keeps both float bounds within maxCellCoord of the clip side.
	clo := make([]int64, len(q))
	chi := make([]int64, len(q))
	for i, v := range q {
		clo[i], chi[i] = g.lo[i], g.hi[i]
		if f := math.Floor((v - radius) / g.cfg.CellSize); f > float64(clo[i]) {
			clo[i] = int64(f)
		}
		if f := math.Floor((v + radius) / g.cfg.CellSize); f < float64(chi[i]) {
			chi[i] = int64(f)
		}
		if clo[i] > chi[i] {
			return rs.results(), nil
		}
	}

	if boxVolume(clo, chi, len(g.index)) > len(g.index) {
		g.scanCells(func(c *gridCell) bool { return inBox(c.coord, clo, chi) }, q, rs)
	} else {
		c := make([]int64, len(q))
		var walk func(dim int)
		walk = func(dim int) {
			if dim == len(q) {
				if id, ok := g.index[cellKey(c)]; ok {
					for _, el := range g.cells.at(id).bucket {
						rs.offer(el, g.metric.Distance(q, el.point))
					}
				}
				return
			}
			for v := clo[dim]; v <= chi[dim]; v++ {
				c[dim] = v
				walk(dim + 1)
			}
		}
		walk(0)
	}
	g.log.DebugContext(context.Background(), "grid range query", "radius", radius, "results", len(rs.items))
	return rs.results(), nil
}

// boxVolume returns the number of cells in [lo, hi], or limit+1 once the
// count exceeds limit.
func boxVolume(lo, hi []int64, limit int) int {
	vol := 1
	for i := range lo {
		n := hi[i] - lo[i] + 1
		if n <= 0 {
			return 0
		}
		if n > int64(limit) || vol > limit/int(n) {
			return limit + 1
		}
		vol *= int(n)
	}
	return vol
}

func inBox(c, lo, hi []int64) bool {
	for i, v := range c {
		if v < lo[i] || v > hi[i] {
			return false
		}
	}
	return true
}

func chebyshev(a, b []int64) int64 {
	var d int64
	for i := range a {
		d = max(d, abs64(a[i]-b[i]))
	}
	return d
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
