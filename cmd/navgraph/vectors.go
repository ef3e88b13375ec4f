package main

import (
	"fmt"
	"io"
	"os"

	"github.com/navgraph/navgraph/vectorstore"
)

// openVectors opens an .fvecs file. Without a limit the file is mapped;
// with one the first limit records are read into memory.
func openVectors(path string, limit int) (vectorstore.VectorStore, error) {
	if limit <= 0 {
		store, err := vectorstore.OpenMapped(path)
		if err != nil {
			return nil, fmt.Errorf("open vectors: %w", err)
		}
		return store, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vectors: %w", err)
	}
	defer f.Close()

	store, err := vectorstore.ReadFvecs(f, limit)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return store, nil
}

// readQueries loads every record of an .fvecs file.
func readQueries(path string) ([][]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open queries: %w", err)
	}
	defer f.Close()

	store, err := vectorstore.ReadFvecs(f, 0)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return allVectors(store), nil
}

func allVectors(store vectorstore.VectorStore) [][]float32 {
	out := make([][]float32, store.Count())
	for i := range out {
		out[i] = store.Get(uint32(i))
	}
	return out
}

func closeVectors(store vectorstore.VectorStore) {
	if c, ok := store.(io.Closer); ok {
		_ = c.Close()
	}
}
