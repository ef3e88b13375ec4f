package mmap

import (
	"errors"
	"io"
	"os"
)

// Access hints how a mapping will be read so the kernel can tune readahead.
type Access int

const (
	// Random suits graph traversal, which touches vectors in no particular order.
	Random Access = iota

	// Sequential suits a single front-to-back scan such as decoding an index.
	Sequential
)

// File is a read-only memory mapping of a whole file.
type File struct {
	data []byte
	f    *os.File
}

// Open maps the file at path into memory as read-only.
func Open(path string, access Access) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	size := fi.Size()
	if size == 0 {
		return &File{f: f}, nil
	}
	if size < 0 {
		f.Close()
		return nil, errors.New("mmap: file size is negative")
	}

	data, err := mmap(f, int(size))
	if err != nil {
		f.Close()
		return nil, err
	}

	// The hint is advisory; a failure leaves the default readahead.
	_ = madvise(data, access)

	return &File{data: data, f: f}, nil
}

// Bytes returns the mapped contents. The slice is valid until Close.
func (m *File) Bytes() []byte {
	return m.data
}

// Size returns the mapped size in bytes.
func (m *File) Size() int {
	return len(m.data)
}

// ReadAt implements io.ReaderAt on the mapping.
func (m *File) ReadAt(p []byte, off int64) (n int, err error) {
	if off < 0 || off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n = copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Close unmaps the memory and closes the underlying file. It is safe to call
// Close more than once.
func (m *File) Close() error {
	if m == nil {
		return nil
	}
	var err error
	if m.data != nil {
		err = munmap(m.data)
		m.data = nil
	}
	if m.f != nil {
		if closeErr := m.f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		m.f = nil
	}
	return err
}
