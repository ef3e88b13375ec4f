package hnsw

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// LevelStats describes one layer of the graph.
type LevelStats struct {
	Level     int
	Nodes     int
	Edges     int
	AvgDegree float64
}

// Stats summarizes the graph.
type Stats struct {
	Params     Params
	Nodes      int
	EntryPoint uint32
	MaxLayer   int
	Levels     []LevelStats

	// Reachable is the number of nodes reachable from the entry point
	// through layer-0 edges.
	Reachable int
}

// Stats returns statistics about the graph.
func (g *Graph) Stats() Stats {
	s := g.Snapshot()

	st := Stats{
		Params:     s.Params,
		Nodes:      len(s.Nodes),
		EntryPoint: s.EntryPoint,
		MaxLayer:   s.MaxLayer,
	}
	if s.MaxLayer < 0 {
		return st
	}

	members := make([]*roaring.Bitmap, s.MaxLayer+1)
	edges := make([]int, s.MaxLayer+1)
	for l := range members {
		members[l] = roaring.New()
	}

	for id, layers := range s.Nodes {
		for l, list := range layers {
			members[l].Add(uint32(id))
			edges[l] += len(list)
		}
	}

	st.Levels = make([]LevelStats, len(members))
	for l, bm := range members {
		nodes := int(bm.GetCardinality())
		ls := LevelStats{Level: l, Nodes: nodes, Edges: edges[l]}
		if nodes > 0 {
			ls.AvgDegree = float64(edges[l]) / float64(nodes)
		}
		st.Levels[l] = ls
	}

	st.Reachable = int(reachable(s.EntryPoint, func(id uint32, dst []uint32) []uint32 {
		return append(dst, s.Nodes[id][0]...)
	}).GetCardinality())

	return st
}

// Reachable returns the set of nodes reachable from the entry point through
// layer-0 edges. It is empty for an empty graph.
func (g *Graph) Reachable() *roaring.Bitmap {
	g.world.RLock()
	defer g.world.RUnlock()

	ep, maxLayer := g.entry()
	if maxLayer < 0 {
		return roaring.New()
	}
	return reachable(ep, func(id uint32, dst []uint32) []uint32 {
		return g.neighborsInto(id, 0, dst)
	})
}

func reachable(start uint32, neighbors func(id uint32, dst []uint32) []uint32) *roaring.Bitmap {
	seen := roaring.New()
	seen.Add(start)

	queue := []uint32{start}
	var buf []uint32
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		buf = neighbors(id, buf[:0])
		for _, nb := range buf {
			if seen.CheckedAdd(nb) {
				queue = append(queue, nb)
			}
		}
	}
	return seen
}
