package hnsw

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/navgraph/navgraph/internal/searcher"
	"github.com/navgraph/navgraph/vectorstore"
)

// Build links every vector of store into a new graph, node i referring to
// vector i.
//
// Levels are drawn sequentially from Options.Seed before linking starts, so
// a seed fixes the level assignment independent of Options.Workers. Node 0 is
// linked first; the rest are linked by up to Workers goroutines. With a
// single worker the resulting graph is fully deterministic.
func Build(store vectorstore.VectorStore, optFns ...func(o *Options)) (*Graph, error) {
	opts, err := buildOptions(optFns)
	if err != nil {
		return nil, err
	}

	g, err := newGraph(store, opts)
	if err != nil {
		return nil, err
	}

	n := store.Count()
	if n == 0 {
		return g, nil
	}

	rng := newRand(opts.Seed)
	nodes := make([]*node, n)
	for i := range nodes {
		if err := checkDimension(g.params.Dimension, store.Get(uint32(i))); err != nil {
			return nil, fmt.Errorf("hnsw: vector %d: %w", i, err)
		}
		nodes[i] = newNode(drawLevel(rng, g.params.LevelMultiplier))
	}
	g.nodes = nodes

	var linked atomic.Int64
	report := func() {
		if opts.Progress != nil {
			opts.Progress(int(linked.Add(1)), n)
		}
	}

	sc := searcher.Get()
	g.link(sc, 0)
	searcher.Put(sc)
	report()

	var eg errgroup.Group
	eg.SetLimit(opts.Workers)

	for i := 1; i < n; i++ {
		id := uint32(i)
		eg.Go(func() error {
			sc := searcher.Get()
			defer searcher.Put(sc)
			g.link(sc, id)
			report()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return g, nil
}
