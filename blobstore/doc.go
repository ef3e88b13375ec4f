// Package blobstore provides the storage abstraction persisted indexes are
// written to and read from.
//
// BlobStore is the interface for reading and writing named, immutable blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem, atomic rename on write, mmap on read
//   - MemoryStore: in-process map, used by tests
//   - minio.Store: MinIO and other S3-compatible servers
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//
// # Custom Implementations
//
// Implement the BlobStore interface to support custom storage backends:
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Blobs that live in local memory may also implement Mappable so readers
// can skip the copy.
package blobstore
