package nn

import "fmt"

// Element is a caller-owned handle that binds a point to its current
// position inside an index. Indexes never allocate or free handles; they
// only record where a handle lives so that Remove and Update need no search.
//
// An Element may be embedded in a larger struct or allocated on its own.
// It must not be copied while it is a member of an index.
type Element struct {
	point []float64

	// Data is an optional caller payload returned alongside query results.
	Data any

	owner any    // index the handle belongs to; nil when detached
	slot  int32  // arena slot of the owning node or cell
	gen   uint32 // generation of slot when the handle was placed
	pos   int    // position inside the owning bucket
	init  bool
}

// NewElement returns an initialized handle for point p.
func NewElement(p []float64, data any) *Element {
	el := &Element{Data: data}
	el.bind(p)
	return el
}

// Init binds the handle to point p. It must be called before the handle is
// passed to Add or a bulk build, and fails with ErrInvalidState while the
// handle is a member of an index.
func (e *Element) Init(p []float64) error {
	if e.owner != nil {
		return fmt.Errorf("%w: cannot re-initialize a member element", ErrInvalidState)
	}
	e.bind(p)
	return nil
}

func (e *Element) bind(p []float64) {
	e.point = p
	e.owner = nil
	e.slot = -1
	e.gen = 0
	e.pos = -1
	e.init = true
}

// Point returns the point the handle refers to. The slice is shared with
// the caller; after changing its coordinates call Update on the owning index.
func (e *Element) Point() []float64 { return e.point }

// Member reports whether the handle currently belongs to an index.
func (e *Element) Member() bool { return e.owner != nil }

func (e *Element) attach(owner any, slot int32, gen uint32, pos int) {
	e.owner = owner
	e.slot = slot
	e.gen = gen
	e.pos = pos
}

func (e *Element) detach() {
	e.owner = nil
	e.slot = -1
	e.gen = 0
	e.pos = -1
}

// checkAddable validates a handle before it joins an index of dimension dim.
func checkAddable(el *Element, dim int) error {
	if el == nil || !el.init {
		return ErrNotInitialized
	}
	if el.owner != nil {
		return ErrAlreadyMember
	}
	return checkDim(dim, el.point)
}

// Neighbor is a single query result.
type Neighbor struct {
	Element *Element
	Dist    float64
}

// Elements extracts the handles from a result slice, preserving order.
func Elements(ns []Neighbor) []*Element {
	out := make([]*Element, len(ns))
	copyElements(out, ns)
	return out
}

// copyElements writes the handles of ns into out and returns the count.
func copyElements(out []*Element, ns []Neighbor) int {
	for i, n := range ns {
		out[i] = n.Element
	}
	return len(ns)
}
