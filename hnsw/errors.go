package hnsw

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument is the root of every argument validation error.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	ErrInvalidK         = fmt.Errorf("%w: k must be positive", ErrInvalidArgument)
	ErrInvalidM         = fmt.Errorf("%w: M must be at least 1", ErrInvalidArgument)
	ErrInvalidEF        = fmt.Errorf("%w: efConstruction must be at least 1", ErrInvalidArgument)
	ErrInvalidDimension = fmt.Errorf("%w: dimension must be positive", ErrInvalidArgument)
	ErrNodeOutOfRange   = fmt.Errorf("%w: node id out of range", ErrInvalidArgument)
	ErrLayerOutOfRange  = fmt.Errorf("%w: layer out of range", ErrInvalidArgument)
	ErrTooManyNeighbors = fmt.Errorf("%w: neighbor list exceeds layer capacity", ErrInvalidArgument)
)

// ErrInvariant is returned by Validate when the graph structure is inconsistent.
var ErrInvariant = errors.New("graph invariant violated")

// ErrDimensionMismatch is returned when a vector length differs from the graph dimension.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func checkDimension(expected int, v []float32) error {
	if len(v) != expected {
		return &ErrDimensionMismatch{Expected: expected, Actual: len(v)}
	}
	return nil
}
