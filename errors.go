package nn

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when k is not positive or the output buffer
	// cannot hold k results.
	ErrInvalidK = errors.New("nn: k must be positive")

	// ErrInvalidConfig wraps every configuration validation failure.
	ErrInvalidConfig = errors.New("nn: invalid config")

	// ErrUnknownKind is returned by New for an unrecognised index kind.
	ErrUnknownKind = errors.New("nn: unknown index kind")

	// ErrNotInitialized is returned when a handle is used before Init.
	ErrNotInitialized = errors.New("nn: element not initialized")

	// ErrAlreadyMember is returned when adding a handle that already belongs
	// to an index.
	ErrAlreadyMember = errors.New("nn: element is already a member of an index")

	// ErrNotMember is returned when removing or updating a handle that does
	// not belong to the index it is passed to.
	ErrNotMember = errors.New("nn: element is not a member of this index")

	// ErrInvalidState is returned when a handle's back-reference no longer
	// matches the index structure, or when a member handle is re-initialised.
	ErrInvalidState = errors.New("nn: invalid element state")

	// ErrNonFinite is returned by the grid index for points or queries with
	// NaN or infinite coordinates, which have no cell.
	ErrNonFinite = errors.New("nn: point has non-finite coordinates")
)

// ErrDimensionMismatch indicates a point or query with the wrong number of
// coordinates.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("nn: dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func checkDim(expected int, p []float64) error {
	if len(p) != expected {
		return &ErrDimensionMismatch{Expected: expected, Actual: len(p)}
	}
	return nil
}

func checkK(k int) error {
	if k < 1 {
		return fmt.Errorf("%w, got %d", ErrInvalidK, k)
	}
	return nil
}

// checkOut validates k and the caller buffer of a Nearest call.
func checkOut(k int, out []*Element) error {
	if err := checkK(k); err != nil {
		return err
	}
	if len(out) < k {
		return fmt.Errorf("%w: output buffer holds %d, need %d", ErrInvalidK, len(out), k)
	}
	return nil
}
