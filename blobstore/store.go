package blobstore

import (
	"context"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore stores named, immutable blobs such as persisted indexes.
// Implementations must be safe for concurrent use.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)

	// Create creates a blob for streaming writes. The blob becomes visible
	// when the returned writer is closed without error.
	Create(ctx context.Context, name string) (WritableBlob, error)

	// Put writes a blob atomically.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a data blob.
type Blob interface {
	io.Closer

	// ReadAt reads len(p) bytes starting at off.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)

	// ReadRange returns a reader over length bytes starting at off. The
	// range is clipped to the blob size; io.EOF is returned if off is past
	// the end.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)

	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a blob under construction.
type WritableBlob interface {
	io.WriteCloser

	// Sync flushes buffered data to stable storage where supported.
	Sync() error
}

// Aborter is implemented by writable blobs that can discard a write in
// progress instead of committing it on Close.
type Aborter interface {
	Abort() error
}

// Mappable is an optional interface for Blobs that support memory mapping.
type Mappable interface {
	// Bytes returns the underlying byte slice.
	// The slice is valid until the Blob is closed.
	// This is a zero-copy operation if supported.
	Bytes() ([]byte, error)
}

// NewReader returns a sequential reader over the whole blob.
func NewReader(ctx context.Context, b Blob) io.Reader {
	return io.NewSectionReader(&readerAt{ctx: ctx, b: b}, 0, b.Size())
}

type readerAt struct {
	ctx context.Context
	b   Blob
}

func (r *readerAt) ReadAt(p []byte, off int64) (int, error) {
	return r.b.ReadAt(r.ctx, p, off)
}
