package hnsw

import (
	"slices"

	"github.com/navgraph/navgraph/internal/searcher"
)

// selectNeighbors picks at most m neighbors for a base node from candidates
// sorted nearest first, each carrying its distance to the base.
//
// A candidate is kept only if it is closer to the base than to every
// neighbor kept so far, so the result spreads around the base instead of
// clustering on one side. With KeepPrunedConnections the remaining slots are
// filled with the nearest discarded candidates. exclude is never selected.
func (g *Graph) selectNeighbors(candidates []searcher.Item, m int, exclude uint32, dst []searcher.Item) []searcher.Item {
	dst = dst[:0]

	var pruned []searcher.Item

	for _, cand := range candidates {
		if len(dst) >= m {
			break
		}
		if cand.ID == exclude {
			continue
		}

		candVec := g.store.Get(cand.ID)
		good := true
		for _, kept := range dst {
			if g.distFunc(candVec, g.store.Get(kept.ID)) < cand.Distance {
				good = false
				break
			}
		}

		if good {
			dst = append(dst, cand)
		} else if g.keepPruned {
			pruned = append(pruned, cand)
		}
	}

	for _, cand := range pruned {
		if len(dst) >= m {
			break
		}
		dst = append(dst, cand)
	}

	return dst
}

func compareItems(a, b searcher.Item) int {
	switch {
	case searcher.Less(a, b):
		return -1
	case searcher.Less(b, a):
		return 1
	default:
		return 0
	}
}

// shrink re-selects the neighbors of base at layer after newID was added
// beyond the cap. list is the current adjacency list without newID; dist is
// the distance between base and newID.
func (g *Graph) shrink(base uint32, list []uint32, newID uint32, dist float32, capacity int) []uint32 {
	baseVec := g.store.Get(base)

	candidates := make([]searcher.Item, 0, len(list)+1)
	for _, id := range list {
		candidates = append(candidates, searcher.Item{ID: id, Distance: g.distFunc(baseVec, g.store.Get(id))})
	}
	candidates = append(candidates, searcher.Item{ID: newID, Distance: dist})
	slices.SortFunc(candidates, compareItems)

	kept := g.selectNeighbors(candidates, capacity, base, nil)

	out := make([]uint32, len(kept))
	for i, item := range kept {
		out[i] = item.ID
	}
	return out
}
