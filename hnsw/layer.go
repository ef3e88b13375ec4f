package hnsw

import (
	"github.com/navgraph/navgraph/internal/searcher"
)

// searchLayer runs a best-first beam search of width ef at one layer, seeded
// with seeds, and appends the result to dst[:0] ordered nearest first.
//
// Greedy descent is searchLayer with ef = 1. Insertion uses efConstruction
// and queries use efSearch. seeds and dst must not share memory.
func (g *Graph) searchLayer(sc *searcher.Context, q []float32, seeds []searcher.Item, ef, layer int, dst []searcher.Item) []searcher.Item {
	sc.ResetLayer()

	candidates := sc.Candidates
	results := sc.Results
	visited := sc.Visited

	for _, s := range seeds {
		if visited.Visit(s.ID) {
			candidates.Push(s)
			results.PushBounded(s, ef)
		}
	}

	for candidates.Len() > 0 {
		curr, _ := candidates.Pop()

		worst, _ := results.Top()
		if results.Len() >= ef && searcher.Less(worst, curr) {
			break
		}

		sc.Neighbors = g.neighborsInto(curr.ID, layer, sc.Neighbors[:0])
		for _, next := range sc.Neighbors {
			if !visited.Visit(next) {
				continue
			}

			item := searcher.Item{ID: next, Distance: g.distance(q, next)}
			sc.DistanceComputations++

			// Skip nodes that cannot enter a full result set.
			if results.Len() >= ef {
				worst, _ = results.Top()
				if !searcher.Less(item, worst) {
					continue
				}
			}

			candidates.Push(item)
			results.PushBounded(item, ef)
		}
	}

	return results.DrainAscending(dst[:0])
}
