package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
)

// MemoryStore is a BlobStore held in process memory. It backs tests and
// indexes that are passed between components as bytes.
//
// Stored blobs are never modified in place, so readers share them without
// copying.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Open implements BlobStore.
func (m *MemoryStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	data, ok := m.blobs[name]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &memoryBlob{r: bytes.NewReader(data), data: data}, nil
}

// Create implements BlobStore. The blob replaces any previous one of the
// same name when the writer is closed.
func (m *MemoryStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memoryWriter{store: m, name: name}, nil
}

// Put implements BlobStore.
func (m *MemoryStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.commit(name, slices.Clone(data))
	return nil
}

func (m *MemoryStore) commit(name string, data []byte) {
	m.mu.Lock()
	m.blobs[name] = data
	m.mu.Unlock()
}

// Delete implements BlobStore.
func (m *MemoryStore) Delete(_ context.Context, name string) error {
	m.mu.Lock()
	delete(m.blobs, name)
	m.mu.Unlock()
	return nil
}

// List implements BlobStore.
func (m *MemoryStore) List(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	names := slices.Sorted(maps.Keys(m.blobs))
	m.mu.RUnlock()

	return slices.DeleteFunc(names, func(name string) bool {
		return !strings.HasPrefix(name, prefix)
	}), nil
}

type memoryBlob struct {
	r    *bytes.Reader
	data []byte
}

func (b *memoryBlob) ReadAt(_ context.Context, p []byte, off int64) (int, error) {
	return b.r.ReadAt(p, off)
}

func (b *memoryBlob) ReadRange(_ context.Context, off, length int64) (io.ReadCloser, error) {
	size := int64(len(b.data))
	if off < 0 || off >= size {
		return nil, io.EOF
	}
	return io.NopCloser(io.NewSectionReader(b.r, off, min(length, size-off))), nil
}

func (b *memoryBlob) Bytes() ([]byte, error) { return b.data, nil }

func (b *memoryBlob) Size() int64 { return int64(len(b.data)) }

func (b *memoryBlob) Close() error { return nil }

var errWriterDone = errors.New("blobstore: writer already closed")

type memoryWriter struct {
	store *MemoryStore
	name  string
	buf   bytes.Buffer
	done  bool
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	if w.done {
		return 0, errWriterDone
	}
	return w.buf.Write(p)
}

func (w *memoryWriter) Sync() error { return nil }

func (w *memoryWriter) Close() error {
	if w.done {
		return errWriterDone
	}
	w.done = true
	w.store.commit(w.name, slices.Clone(w.buf.Bytes()))
	return nil
}

// Abort discards the buffered data without publishing it.
func (w *memoryWriter) Abort() error {
	w.done = true
	w.buf.Reset()
	return nil
}
