package navgraph

import (
	"errors"
	"fmt"

	"github.com/navgraph/navgraph/blobstore"
	"github.com/navgraph/navgraph/hnsw"
	"github.com/navgraph/navgraph/persistence"
	"github.com/navgraph/navgraph/vectorstore"
)

var (
	// ErrInvalidArgument is the root of all argument validation errors.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = fmt.Errorf("%w: k must be positive", ErrInvalidArgument)

	// ErrCorruptIndex is returned when a persisted index fails validation.
	ErrCorruptIndex = errors.New("corrupt index")

	// ErrMissingVectors is returned when loading an index that has no
	// embedded vectors without supplying a vector store.
	ErrMissingVectors = errors.New("index has no embedded vectors")

	// ErrNotFound is returned when a persisted index does not exist.
	ErrNotFound = errors.New("index not found")

	// ErrReadOnly is returned by Insert when the index is backed by a
	// vector store that cannot grow.
	ErrReadOnly = errors.New("index is read-only")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *hnsw.ErrDimensionMismatch
	if errors.As(err, &dm) {
		return &ErrDimensionMismatch{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}
	if errors.Is(err, hnsw.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}
	if errors.Is(err, hnsw.ErrInvalidArgument) {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	if errors.Is(err, persistence.ErrCorruptIndex) {
		return fmt.Errorf("%w: %w", ErrCorruptIndex, err)
	}
	if errors.Is(err, persistence.ErrMissingVectors) {
		return fmt.Errorf("%w: %w", ErrMissingVectors, err)
	}
	if errors.Is(err, vectorstore.ErrReadOnly) {
		return fmt.Errorf("%w: %w", ErrReadOnly, err)
	}
	if errors.Is(err, blobstore.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return err
}
