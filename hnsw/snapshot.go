package hnsw

import (
	"fmt"

	"github.com/navgraph/navgraph/vectorstore"
)

// Snapshot is a point-in-time copy of a graph's topology.
type Snapshot struct {
	Params     Params
	EntryPoint uint32
	MaxLayer   int // -1 for an empty graph

	// Nodes[id][layer] is the adjacency list of id at layer. The level of a
	// node is len(Nodes[id]) - 1.
	Nodes [][][]uint32
}

// Snapshot copies the topology while holding the graph exclusively.
// Concurrent insertions and searches wait until the copy is complete.
func (g *Graph) Snapshot() *Snapshot {
	g.world.Lock()
	defer g.world.Unlock()

	g.nodesMu.RLock()
	nodes := g.nodes
	g.nodesMu.RUnlock()

	ep, maxLayer := g.entry()

	s := &Snapshot{
		Params:     g.params,
		EntryPoint: ep,
		MaxLayer:   maxLayer,
		Nodes:      make([][][]uint32, len(nodes)),
	}

	for id, n := range nodes {
		layers := make([][]uint32, len(n.neighbors))
		for l, list := range n.neighbors {
			layers[l] = append([]uint32(nil), list...)
		}
		s.Nodes[id] = layers
	}

	return s
}

// FromSnapshot rebuilds a graph from s without re-running insertion. The
// store must hold at least len(s.Nodes) vectors of the snapshot dimension.
// optFns may set runtime options (Seed, Workers, KeepPrunedConnections);
// the structural parameters always come from the snapshot.
func FromSnapshot(store vectorstore.VectorStore, s *Snapshot, optFns ...func(o *Options)) (*Graph, error) {
	if err := s.Params.Validate(); err != nil {
		return nil, err
	}
	if store.Dimension() != s.Params.Dimension {
		return nil, &ErrDimensionMismatch{Expected: s.Params.Dimension, Actual: store.Dimension()}
	}
	if store.Count() < len(s.Nodes) {
		return nil, fmt.Errorf("%w: store holds %d vectors, snapshot has %d nodes", ErrInvalidArgument, store.Count(), len(s.Nodes))
	}
	if err := s.Check(); err != nil {
		return nil, err
	}

	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.M = s.Params.M
	opts.M0 = s.Params.M0
	opts.EFConstruction = s.Params.EFConstruction
	opts.LevelMultiplier = s.Params.LevelMultiplier
	opts.Metric = s.Params.Metric
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	g, err := newGraph(store, opts)
	if err != nil {
		return nil, err
	}

	g.nodes = make([]*node, len(s.Nodes))
	for id, layers := range s.Nodes {
		n := newNode(len(layers) - 1)
		for l, list := range layers {
			n.neighbors[l] = append([]uint32(nil), list...)
		}
		g.nodes[id] = n
	}
	g.entryPoint = s.EntryPoint
	g.maxLayer = s.MaxLayer

	return g, nil
}

// Check verifies the structural invariants of the snapshot:
// every node exists at layer 0, neighbor ids are in range and exist at the
// layer they are listed on, lists respect the layer caps, and the entry
// point has the maximum level.
func (s *Snapshot) Check() error {
	n := len(s.Nodes)
	if n == 0 {
		if s.MaxLayer != -1 {
			return fmt.Errorf("%w: empty graph with max layer %d", ErrInvariant, s.MaxLayer)
		}
		return nil
	}

	top := -1
	for id, layers := range s.Nodes {
		if len(layers) == 0 {
			return fmt.Errorf("%w: node %d has no layers", ErrInvariant, id)
		}
		top = max(top, len(layers)-1)

		for l, list := range layers {
			if c := s.Params.Capacity(l); len(list) > c {
				return fmt.Errorf("%w: node %d has %d neighbors at layer %d (cap %d)", ErrInvariant, id, len(list), l, c)
			}
			for _, nb := range list {
				if int(nb) >= n {
					return fmt.Errorf("%w: node %d links to %d at layer %d, only %d nodes", ErrInvariant, id, nb, l, n)
				}
				if len(s.Nodes[nb])-1 < l {
					return fmt.Errorf("%w: node %d links to %d at layer %d above its level", ErrInvariant, id, nb, l)
				}
			}
		}
	}

	if int(s.EntryPoint) >= n {
		return fmt.Errorf("%w: entry point %d out of range", ErrInvariant, s.EntryPoint)
	}
	if epLevel := len(s.Nodes[s.EntryPoint]) - 1; epLevel != s.MaxLayer || top != s.MaxLayer {
		return fmt.Errorf("%w: entry point level %d, max layer %d, highest node level %d", ErrInvariant, epLevel, s.MaxLayer, top)
	}
	return nil
}

// Validate checks the structural invariants of the live graph.
func (g *Graph) Validate() error {
	return g.Snapshot().Check()
}
