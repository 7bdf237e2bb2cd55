package nn

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// DistanceMetric measures the distance between two points of equal
// dimensionality. Indexes rely on the triangle inequality for pruning, so
// implementations must be true metrics: symmetric, non-negative and
// triangle-respecting. This is not verified.
type DistanceMetric interface {
	Distance(a, b []float64) float64
}

// DistanceFunc adapts a plain function into a DistanceMetric. Any extra
// state the function needs is carried by the closure.
type DistanceFunc func(a, b []float64) float64

func (f DistanceFunc) Distance(a, b []float64) float64 { return f(a, b) }

// EuclideanMetric computes the Euclidean (L2) distance.
type EuclideanMetric struct{}

func (EuclideanMetric) Distance(a, b []float64) float64 { return floats.Distance(a, b, 2) }

// ManhattanMetric computes the Manhattan (L1 / city-block) distance.
type ManhattanMetric struct{}

func (ManhattanMetric) Distance(a, b []float64) float64 { return floats.Distance(a, b, 1) }

// ChebyshevMetric computes the Chebyshev (L-infinity) distance.
type ChebyshevMetric struct{}

func (ChebyshevMetric) Distance(a, b []float64) float64 { return floats.Distance(a, b, math.Inf(1)) }

// MinkowskiMetric computes the Minkowski distance parameterized by P.
// P must be >= 1; smaller values do not satisfy the triangle inequality.
type MinkowskiMetric struct {
	P float64
}

func (m MinkowskiMetric) Distance(a, b []float64) float64 { return floats.Distance(a, b, m.P) }

// dominatesChebyshev reports whether m is known to never return less than
// the Chebyshev distance, which the grid index needs for its ring bound.
func dominatesChebyshev(m DistanceMetric) bool {
	switch v := m.(type) {
	case EuclideanMetric, ManhattanMetric, ChebyshevMetric:
		return true
	case MinkowskiMetric:
		return v.P >= 1
	default:
		return false
	}
}

// sanitizeDist maps distances that cannot order a partition (NaN,
// negative) to +Inf so splits and descents stay consistent.
func sanitizeDist(d float64) float64 {
	if math.IsNaN(d) || d < 0 {
		return math.Inf(1)
	}
	return d
}
