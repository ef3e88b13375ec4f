package minio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/navgraph/navgraph/blobstore"
)

const contentType = "application/octet-stream"

var errAborted = errors.New("minio: upload aborted")

// Config describes a MinIO endpoint and bucket.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Prefix    string
	Region    string
	Secure    bool

	// CreateBucket creates the bucket if it does not exist.
	CreateBucket bool
}

// Store is a blobstore.BlobStore over one bucket of a MinIO or other
// S3-compatible server. Blob names are keys below an optional prefix.
type Store struct {
	client *minio.Client
	bucket string
	prefix string
}

// New connects to the endpoint in cfg and returns a store on its bucket.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.Secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: connect %s: %w", cfg.Endpoint, err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio: bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if !cfg.CreateBucket {
			return nil, fmt.Errorf("minio: bucket %s does not exist", cfg.Bucket)
		}
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("minio: create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return NewStore(client, cfg.Bucket, cfg.Prefix), nil
}

// NewStore wraps an existing client. prefix is prepended to every blob
// name (e.g. "indexes/").
func NewStore(client *minio.Client, bucket, prefix string) *Store {
	return &Store{client: client, bucket: bucket, prefix: prefix}
}

func (s *Store) key(name string) string {
	return path.Join(s.prefix, name)
}

func (s *Store) name(key string) string {
	return strings.TrimPrefix(strings.TrimPrefix(key, s.prefix), "/")
}

// notFound reports whether err is a missing key or bucket.
func notFound(err error) bool {
	var resp minio.ErrorResponse
	if !errors.As(err, &resp) {
		return false
	}
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
}

// Open implements blobstore.BlobStore. The object size is fetched once;
// reads are ranged GETs.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key := s.key(name)
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("minio: %s: %w", key, blobstore.ErrNotFound)
		}
		return nil, fmt.Errorf("minio: stat %s: %w", key, err)
	}
	return &blob{client: s.client, bucket: s.bucket, key: key, size: info.Size}, nil
}

// Put implements blobstore.BlobStore.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	key := s.key(name)
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("minio: put %s: %w", key, err)
	}
	return nil
}

// Create implements blobstore.BlobStore. Writes are streamed to a
// multipart upload that completes on Close; Abort cancels it.
func (s *Store) Create(ctx context.Context, name string) (blobstore.WritableBlob, error) {
	key := s.key(name)
	ctx, cancel := context.WithCancelCause(ctx)
	pr, pw := io.Pipe()

	w := &writer{pw: pw, cancel: cancel, done: make(chan error, 1)}
	go func() {
		_, err := s.client.PutObject(ctx, s.bucket, key, pr, -1, minio.PutObjectOptions{ContentType: contentType})
		if err != nil {
			err = fmt.Errorf("minio: upload %s: %w", key, err)
		}
		_ = pr.CloseWithError(err)
		w.done <- err
	}()
	return w, nil
}

// Delete implements blobstore.BlobStore.
func (s *Store) Delete(ctx context.Context, name string) error {
	key := s.key(name)
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil && !notFound(err) {
		return fmt.Errorf("minio: delete %s: %w", key, err)
	}
	return nil
}

// List implements blobstore.BlobStore.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.key(prefix),
		Recursive: true,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("minio: list %s: %w", prefix, obj.Err)
		}
		if name := s.name(obj.Key); name != "" {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

type blob struct {
	client *minio.Client
	bucket string
	key    string
	size   int64
}

// get opens the byte range [off, off+length) clipped to the object size.
func (b *blob) get(ctx context.Context, off, length int64) (*minio.Object, int64, error) {
	if off < 0 || off >= b.size {
		return nil, 0, io.EOF
	}
	n := min(length, b.size-off)

	var opts minio.GetObjectOptions
	if err := opts.SetRange(off, off+n-1); err != nil {
		return nil, 0, err
	}
	obj, err := b.client.GetObject(ctx, b.bucket, b.key, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("minio: get %s: %w", b.key, err)
	}
	return obj, n, nil
}

func (b *blob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	obj, n, err := b.get(ctx, off, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer obj.Close()

	read, err := io.ReadFull(obj, p[:n])
	if err == nil && read < len(p) {
		err = io.EOF
	}
	return read, err
}

func (b *blob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	obj, _, err := b.get(ctx, off, length)
	if err != nil {
		return nil, err
	}
	return obj, nil
}

func (b *blob) Size() int64 { return b.size }

func (b *blob) Close() error { return nil }

type writer struct {
	pw     *io.PipeWriter
	cancel context.CancelCauseFunc
	done   chan error
	closed bool
}

func (w *writer) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

func (w *writer) Sync() error { return nil }

func (w *writer) Close() error {
	if w.closed {
		return errors.New("minio: writer already closed")
	}
	w.closed = true
	defer w.cancel(nil)

	if err := w.pw.Close(); err != nil {
		return err
	}
	return <-w.done
}

// Abort cancels the upload. Nothing becomes visible under the blob name.
func (w *writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.cancel(errAborted)
	_ = w.pw.CloseWithError(errAborted)
	<-w.done
	return nil
}
