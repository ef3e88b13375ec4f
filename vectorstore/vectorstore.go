// Package vectorstore provides the read-only vector sources the graph is
// built over.
//
// A VectorStore owns vector memory; the graph only references vectors by id
// and never copies them. Stores that can grow implement Appender and are
// required for incremental insertion.
package vectorstore

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrWrongDimension is returned when a vector doesn't match the store dimension.
	ErrWrongDimension = errors.New("wrong vector dimension")

	// ErrReadOnly is returned when appending to a store that cannot grow.
	ErrReadOnly = errors.New("vector store is read-only")
)

// VectorStore is a random-access sequence of vectors of a fixed dimension.
//
// Get must return a slice of length Dimension() for every 0 <= id < Count().
// Returned slices alias store memory and must not be modified.
type VectorStore interface {
	Dimension() int
	Count() int
	Get(id uint32) []float32
}

// Appender is implemented by stores that accept new vectors.
type Appender interface {
	// Append stores v and returns its id, which is always the previous Count().
	Append(v []float32) (uint32, error)
}

// Memory is an in-memory, append-only VectorStore. It is safe for concurrent
// use; appended vectors are copied.
type Memory struct {
	dim  int
	mu   sync.RWMutex
	vecs [][]float32
}

// NewMemory creates an empty in-memory store for vectors of length dim.
func NewMemory(dim int) *Memory {
	return &Memory{dim: dim}
}

// FromVectors creates a Memory store that adopts vecs without copying them.
// Every vector must have length dim.
func FromVectors(dim int, vecs [][]float32) (*Memory, error) {
	for i, v := range vecs {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has length %d, want %d", ErrWrongDimension, i, len(v), dim)
		}
	}
	return &Memory{dim: dim, vecs: vecs}, nil
}

// Dimension returns the vector length.
func (m *Memory) Dimension() int { return m.dim }

// Count returns the number of stored vectors.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.vecs)
}

// Get returns the vector with the given id.
func (m *Memory) Get(id uint32) []float32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.vecs[id]
}

// Append copies v into the store.
func (m *Memory) Append(v []float32) (uint32, error) {
	if len(v) != m.dim {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrWrongDimension, len(v), m.dim)
	}
	vec := make([]float32, len(v))
	copy(vec, v)

	m.mu.Lock()
	defer m.mu.Unlock()
	id := uint32(len(m.vecs))
	m.vecs = append(m.vecs, vec)
	return id, nil
}

// Normalized returns a Memory store holding L2-normalized copies of every
// vector in src, using normalize for each copy. Zero vectors are kept as is.
func Normalized(src VectorStore, normalize func([]float32) bool) *Memory {
	n := src.Count()
	out := &Memory{dim: src.Dimension(), vecs: make([][]float32, n)}
	for i := 0; i < n; i++ {
		v := src.Get(uint32(i))
		c := make([]float32, len(v))
		copy(c, v)
		normalize(c)
		out.vecs[i] = c
	}
	return out
}
