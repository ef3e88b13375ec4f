package vectorstore

import (
	"encoding/binary"
	"fmt"
	"unsafe"

	"github.com/navgraph/navgraph/internal/mmap"
)

// Mapped is a read-only VectorStore over a memory-mapped .fvecs file.
// Vectors returned by Get point directly into the mapping.
//
// The on-disk floats are little-endian; Mapped assumes a little-endian host.
type Mapped struct {
	m      *mmap.File
	dim    int
	count  int
	stride int
}

// OpenMapped maps the .fvecs file at path.
func OpenMapped(path string) (*Mapped, error) {
	m, err := mmap.Open(path, mmap.Random)
	if err != nil {
		return nil, err
	}

	data := m.Bytes()
	if len(data) < 4 {
		m.Close()
		return nil, fmt.Errorf("%w: %s is too short", ErrMalformedFvecs, path)
	}

	dim := int(int32(binary.LittleEndian.Uint32(data)))
	if dim <= 0 {
		m.Close()
		return nil, fmt.Errorf("%w: %s has dimension %d", ErrMalformedFvecs, path, dim)
	}

	stride := 4 + 4*dim
	if len(data)%stride != 0 {
		m.Close()
		return nil, fmt.Errorf("%w: %s size %d is not a multiple of record size %d", ErrMalformedFvecs, path, len(data), stride)
	}

	count := len(data) / stride
	for i := 0; i < count; i++ {
		if d := int(int32(binary.LittleEndian.Uint32(data[i*stride:]))); d != dim {
			m.Close()
			return nil, fmt.Errorf("%w: %s record %d has dimension %d, want %d", ErrMalformedFvecs, path, i, d, dim)
		}
	}

	return &Mapped{m: m, dim: dim, count: count, stride: stride}, nil
}

// Dimension returns the vector length.
func (s *Mapped) Dimension() int { return s.dim }

// Count returns the number of records in the file.
func (s *Mapped) Count() int { return s.count }

// Get returns the vector with the given id without copying.
func (s *Mapped) Get(id uint32) []float32 {
	off := int(id)*s.stride + 4
	data := s.m.Bytes()[off : off+4*s.dim]
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), s.dim)
}

// Close unmaps the file. Vectors obtained from Get must not be used afterwards.
func (s *Mapped) Close() error {
	return s.m.Close()
}
