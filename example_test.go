package navgraph_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/navgraph/navgraph"
	"github.com/navgraph/navgraph/distance"
	"github.com/navgraph/navgraph/persistence"
	"github.com/navgraph/navgraph/vectorstore"
)

// Example_insert demonstrates incremental construction and a k-NN query.
func Example_insert() {
	ctx := context.Background()

	idx, err := navgraph.New(2, navgraph.WithM(2))
	if err != nil {
		log.Fatal(err)
	}
	defer idx.Close()

	for _, v := range [][]float32{{1, 0}, {0, 1}, {-1, 0}, {0, -1}} {
		if _, err := idx.Insert(ctx, v); err != nil {
			log.Fatal(err)
		}
	}

	results, err := idx.Search(ctx, []float32{0.9, 0.1}, 1)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("nearest: %d (distance %.2f)\n", results[0].ID, results[0].Distance)
	// Output: nearest: 0 (distance 0.10)
}

// Example_build demonstrates bulk construction over an existing store.
func Example_build() {
	ctx := context.Background()

	store, err := vectorstore.FromVectors(2, [][]float32{{0, 0}, {1, 0}, {5, 5}, {6, 5}})
	if err != nil {
		log.Fatal(err)
	}

	idx, err := navgraph.Build(ctx, store,
		navgraph.WithMetric(distance.MetricL2),
		navgraph.WithWorkers(2),
		navgraph.WithSeed(7),
	)
	if err != nil {
		log.Fatal(err)
	}
	defer idx.Close()

	results, err := idx.Search(ctx, []float32{5.4, 5}, 2)
	if err != nil {
		log.Fatal(err)
	}

	for _, r := range results {
		fmt.Println(r.ID)
	}
	// Output:
	// 2
	// 3
}

// Example_saveLoad demonstrates persisting an index with its vectors.
func Example_saveLoad() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "navgraph-example")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)

	store, err := vectorstore.FromVectors(3, [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	if err != nil {
		log.Fatal(err)
	}

	idx, err := navgraph.Build(ctx, store,
		navgraph.WithCompression(persistence.CompressionZstd),
		navgraph.WithEmbeddedVectors(),
	)
	if err != nil {
		log.Fatal(err)
	}

	path := filepath.Join(dir, "index.ngx")
	if err := idx.SaveFile(ctx, path); err != nil {
		log.Fatal(err)
	}

	loaded, err := navgraph.LoadFile(ctx, path)
	if err != nil {
		log.Fatal(err)
	}
	defer loaded.Close()

	results, err := loaded.Search(ctx, []float32{0, 0.8, 0.2}, 1)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(loaded.Len(), results[0].ID)
	// Output: 3 1
}
