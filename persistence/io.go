package persistence

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/navgraph/navgraph/blobstore"
	"github.com/navgraph/navgraph/hnsw"
	"github.com/navgraph/navgraph/internal/mmap"
)

// SaveFile encodes g to path. The file is written to a temporary name and
// renamed into place, so readers never observe a partial index.
func SaveFile(path string, g *hnsw.Graph, optFns ...func(o *Options)) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("persistence: create %s: %w", path, err)
	}
	tmp := f.Name()

	if err := Encode(f, g, optFns...); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("persistence: sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("persistence: close %s: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("persistence: rename %s: %w", path, err)
	}
	return nil
}

// LoadFile decodes the index at path. The file is memory-mapped while it
// is decoded and released before LoadFile returns.
func LoadFile(path string, optFns ...func(o *Options)) (*hnsw.Graph, error) {
	m, err := mmap.Open(path, mmap.Sequential)
	if err != nil {
		return nil, fmt.Errorf("persistence: open %s: %w", path, err)
	}
	defer func() { _ = m.Close() }()

	return Decode(bytes.NewReader(m.Bytes()), optFns...)
}

// Save encodes g into the blob name of store.
func Save(ctx context.Context, store blobstore.BlobStore, name string, g *hnsw.Graph, optFns ...func(o *Options)) error {
	w, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("persistence: create blob %s: %w", name, err)
	}

	if err := Encode(w, g, optFns...); err != nil {
		if a, ok := w.(blobstore.Aborter); ok {
			_ = a.Abort()
		} else {
			_ = w.Close()
		}
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("persistence: commit blob %s: %w", name, err)
	}
	return nil
}

// Load decodes the blob name of store.
func Load(ctx context.Context, store blobstore.BlobStore, name string, optFns ...func(o *Options)) (*hnsw.Graph, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("persistence: open blob %s: %w", name, err)
	}
	defer func() { _ = blob.Close() }()

	var r io.Reader
	if m, ok := blob.(blobstore.Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, fmt.Errorf("persistence: map blob %s: %w", name, err)
		}
		r = bytes.NewReader(data)
	} else {
		r = blobstore.NewReader(ctx, blob)
	}

	return Decode(r, optFns...)
}
