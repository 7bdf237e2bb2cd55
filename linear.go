package nn

import "fmt"

// Linear is an exhaustive index: every query scans all elements. It works
// with any metric, true or not, and is the reference other indexes are
// checked against. NaN and negative distances rank as +Inf.
type Linear struct {
	cfg    Config
	metric DistanceMetric
	els    []*Element
}

// NewLinear returns an empty linear index.
func NewLinear(cfg Config) (*Linear, error) {
	cfg, err := prepareConfig(cfg)
	if err != nil {
		return nil, err
	}
	return &Linear{cfg: cfg, metric: cfg.Metric}, nil
}

// Len returns the number of elements in the index.
func (l *Linear) Len() int { return len(l.els) }

// Dim returns the configured dimensionality.
func (l *Linear) Dim() int { return l.cfg.Dim }

// Add appends el.
func (l *Linear) Add(el *Element) error {
	if err := checkAddable(el, l.cfg.Dim); err != nil {
		return err
	}
	el.attach(l, 0, 0, len(l.els))
	l.els = append(l.els, el)
	return nil
}

// Remove unlinks el.
func (l *Linear) Remove(el *Element) error {
	if err := l.owns(el); err != nil {
		return err
	}
	l.els = bucketRemove(l.els, el.pos)
	el.detach()
	return nil
}

// Update validates el's new point; a linear index needs no relocation.
func (l *Linear) Update(el *Element) error {
	if err := l.owns(el); err != nil {
		return err
	}
	return checkDim(l.cfg.Dim, el.point)
}

func (l *Linear) owns(el *Element) error {
	if el == nil || !el.init {
		return ErrNotInitialized
	}
	if el.owner != l {
		return ErrNotMember
	}
	if el.pos < 0 || el.pos >= len(l.els) || l.els[el.pos] != el {
		return fmt.Errorf("%w: element not found", ErrInvalidState)
	}
	return nil
}

// Reset removes every element.
func (l *Linear) Reset() {
	for _, el := range l.els {
		el.detach()
	}
	clear(l.els)
	l.els = l.els[:0]
}

// Nearest writes the k elements closest to q into out, nearest first, and
// returns how many were found.
func (l *Linear) Nearest(q []float64, k int, out []*Element) (int, error) {
	if err := checkOut(k, out); err != nil {
		return 0, err
	}
	ns, err := l.Search(q, k)
	if err != nil {
		return 0, err
	}
	return copyElements(out, ns), nil
}

// Search returns the k nearest elements to q with their distances.
func (l *Linear) Search(q []float64, k int) ([]Neighbor, error) {
	if err := checkK(k); err != nil {
		return nil, err
	}
	if err := checkDim(l.cfg.Dim, q); err != nil {
		return nil, err
	}
	rs := newKNNResult(min(k, max(len(l.els), 1)))
	for _, el := range l.els {
		rs.offer(el, sanitizeDist(l.metric.Distance(q, el.point)))
	}
	return rs.results(), nil
}

// Within returns every element within radius of q, in ascending distance
// order.
func (l *Linear) Within(q []float64, radius float64) ([]Neighbor, error) {
	if err := checkDim(l.cfg.Dim, q); err != nil {
		return nil, err
	}
	rs := newRangeResult(radius)
	for _, el := range l.els {
		rs.offer(el, sanitizeDist(l.metric.Distance(q, el.point)))
	}
	return rs.results(), nil
}
