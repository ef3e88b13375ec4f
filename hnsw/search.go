package hnsw

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/navgraph/navgraph/internal/searcher"
)

// Result is a search hit.
type Result struct {
	ID       uint32  `json:"id"`
	Distance float32 `json:"distance"`
}

// Search returns up to k nodes nearest to query, ordered by increasing
// distance with ties broken by smaller id.
//
// efSearch is clamped up to k; efSearch <= 0 uses the graph's
// EFConstruction. An empty graph yields an empty result.
func Search(g *Graph, query []float32, k, efSearch int) ([]Result, error) {
	return g.Search(query, k, efSearch)
}

// Search is the method form of Search.
func (g *Graph) Search(query []float32, k, efSearch int) ([]Result, error) {
	sc := searcher.Get()
	defer searcher.Put(sc)
	return g.search(sc, query, k, efSearch)
}

func (g *Graph) search(sc *searcher.Context, query []float32, k, efSearch int) ([]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidK, k)
	}
	if err := checkDimension(g.params.Dimension, query); err != nil {
		return nil, err
	}

	g.world.RLock()
	defer g.world.RUnlock()

	ep, maxLayer := g.entry()
	if maxLayer < 0 {
		return []Result{}, nil
	}

	ef := g.determineEF(k, efSearch)
	sc.Visited.EnsureCapacity(g.Len())

	cur := []searcher.Item{{ID: ep, Distance: g.distance(query, ep)}}
	sc.DistanceComputations++
	next := make([]searcher.Item, 0, ef)

	for layer := maxLayer; layer > 0; layer-- {
		next = g.searchLayer(sc, query, cur, 1, layer, next)
		cur, next = next, cur
	}

	next = g.searchLayer(sc, query, cur, ef, 0, next)

	results := make([]Result, min(k, len(next)))
	for i := range results {
		results[i] = Result{ID: next[i].ID, Distance: next[i].Distance}
	}
	return results, nil
}

func (g *Graph) determineEF(k, efSearch int) int {
	ef := efSearch
	if ef <= 0 {
		ef = g.params.EFConstruction
	}
	return max(ef, k)
}

// Searcher is a reusable query context bound to one graph and beam width.
// It owns its scratch memory and is NOT safe for concurrent use.
type Searcher struct {
	g        *Graph
	efSearch int
	sc       *searcher.Context
}

// NewSearcher creates a Searcher over g.
func NewSearcher(g *Graph, efSearch int) *Searcher {
	return &Searcher{
		g:        g,
		efSearch: efSearch,
		sc:       searcher.New(g.Len(), max(efSearch, 16)),
	}
}

// Search returns the k nearest nodes to query.
func (s *Searcher) Search(query []float32, k int) ([]Result, error) {
	s.sc.Reset()
	return s.g.search(s.sc, query, k, s.efSearch)
}

// DistanceComputations returns the number of distances evaluated by the last Search.
func (s *Searcher) DistanceComputations() int {
	return s.sc.DistanceComputations
}

// SearchBatch runs Search for every query concurrently and returns the
// results in input order. The first failing query aborts the batch.
func SearchBatch(g *Graph, queries [][]float32, k, efSearch int) ([][]Result, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidK, k)
	}

	out := make([][]Result, len(queries))

	var eg errgroup.Group
	eg.SetLimit(runtime.GOMAXPROCS(0))

	for i, q := range queries {
		eg.Go(func() error {
			res, err := g.Search(q, k, efSearch)
			if err != nil {
				return fmt.Errorf("query %d: %w", i, err)
			}
			out[i] = res
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
