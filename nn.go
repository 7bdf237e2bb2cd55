package nn

import (
	"context"
	"fmt"
	"time"
)

// Kind selects the index implementation behind the generic facade.
type Kind string

const (
	KindVPTree Kind = "vptree"
	KindGrid   Kind = "grid"
	KindLinear Kind = "linear"
)

// Index is the contract shared by every nearest-neighbour backend, so that
// callers can swap a VP-tree for a grid without other changes.
type Index interface {
	// Add inserts an initialized handle that is not yet a member of any index.
	Add(el *Element) error

	// Remove unlinks a member handle.
	Remove(el *Element) error

	// Update relocates a member handle after its point changed.
	Update(el *Element) error

	// Nearest writes the k nearest handles into out, nearest first, and
	// returns the number found (below k only when the index is smaller).
	Nearest(q []float64, k int, out []*Element) (int, error)

	// Search returns the k nearest handles with their distances.
	Search(q []float64, k int) ([]Neighbor, error)

	// Within returns every handle within radius of q, nearest first.
	Within(q []float64, radius float64) ([]Neighbor, error)

	// Len returns the number of member handles.
	Len() int

	// Dim returns the dimensionality of the indexed points.
	Dim() int

	// Reset detaches every handle and frees internal structures.
	Reset()
}

var (
	_ Index = (*VPTree)(nil)
	_ Index = (*Grid)(nil)
	_ Index = (*Linear)(nil)
)

// New returns an empty index of the given kind. When cfg carries a Logger
// or a MetricsCollector the index is wrapped so that every operation is
// logged and timed.
func New(kind Kind, cfg Config) (Index, error) {
	var (
		idx Index
		err error
	)
	switch kind {
	case KindVPTree:
		idx, err = NewVPTree(cfg)
	case KindGrid:
		idx, err = NewGrid(cfg)
	case KindLinear:
		idx, err = NewLinear(cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	if err != nil {
		return nil, err
	}
	return instrument(kind, cfg, idx), nil
}

// Build returns an index of the given kind holding els. VP-trees are built
// in one balanced pass; other kinds add the handles one at a time. On error
// no handle is left attached.
func Build(kind Kind, cfg Config, els []*Element) (Index, error) {
	idx, err := New(kind, cfg)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	err = bulkAdd(unwrap(idx), els)
	if ins, ok := idx.(*instrumented); ok {
		ins.recordBuild(context.Background(), len(els), time.Since(start), err)
	}
	if err != nil {
		return nil, err
	}
	return idx, nil
}

func bulkAdd(idx Index, els []*Element) error {
	if t, ok := idx.(*VPTree); ok {
		return t.bulkLoad(els)
	}
	for i, el := range els {
		if err := idx.Add(el); err != nil {
			idx.Reset()
			return fmt.Errorf("nn: element %d: %w", i, err)
		}
	}
	return nil
}
