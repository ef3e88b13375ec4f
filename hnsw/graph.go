package hnsw

import (
	"fmt"
	"sync"

	"github.com/navgraph/navgraph/distance"
	"github.com/navgraph/navgraph/vectorstore"
)

// node is one vertex of the graph. neighbors[l] holds the adjacency list at
// layer l for l in [0, level].
type node struct {
	mu        sync.RWMutex
	level     int
	neighbors [][]uint32
}

func newNode(level int) *node {
	return &node{level: level, neighbors: make([][]uint32, level+1)}
}

// Graph is a layered proximity graph over a VectorStore.
type Graph struct {
	params     Params
	keepPruned bool
	workers    int
	seed       uint64

	store    vectorstore.VectorStore
	distFunc distance.Func

	// world is read-locked by every insertion and search and write-locked by
	// Snapshot.
	world sync.RWMutex

	nodesMu sync.RWMutex
	nodes   []*node

	epMu       sync.RWMutex
	entryPoint uint32
	maxLayer   int // -1 while empty
}

// New creates an empty graph over an in-memory store of the given dimension.
func New(dim int, optFns ...func(o *Options)) (*Graph, error) {
	if dim < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidDimension, dim)
	}
	opts, err := buildOptions(optFns)
	if err != nil {
		return nil, err
	}
	return newGraph(vectorstore.NewMemory(dim), opts)
}

func newGraph(store vectorstore.VectorStore, opts Options) (*Graph, error) {
	dim := store.Dimension()
	if dim < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidDimension, dim)
	}
	distFunc, err := distance.Provider(opts.Metric)
	if err != nil {
		return nil, err
	}
	return &Graph{
		params:     opts.params(dim),
		keepPruned: opts.KeepPrunedConnections,
		workers:    opts.Workers,
		seed:       opts.Seed,
		store:      store,
		distFunc:   distFunc,
		maxLayer:   -1,
	}, nil
}

// Params returns the immutable graph parameters.
func (g *Graph) Params() Params { return g.params }

// Dimension returns the vector dimension.
func (g *Graph) Dimension() int { return g.params.Dimension }

// Store returns the vector source backing the graph.
func (g *Graph) Store() vectorstore.VectorStore { return g.store }

// Len returns the number of nodes.
func (g *Graph) Len() int {
	g.nodesMu.RLock()
	defer g.nodesMu.RUnlock()
	return len(g.nodes)
}

func (g *Graph) node(id uint32) *node {
	g.nodesMu.RLock()
	defer g.nodesMu.RUnlock()
	if int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// EntryPoint returns the entry point. ok is false while the graph is empty.
func (g *Graph) EntryPoint() (id uint32, ok bool) {
	id, maxLayer := g.entry()
	return id, maxLayer >= 0
}

// MaxLayer returns the level of the entry point, or -1 for an empty graph.
func (g *Graph) MaxLayer() int {
	_, maxLayer := g.entry()
	return maxLayer
}

func (g *Graph) entry() (uint32, int) {
	g.epMu.RLock()
	defer g.epMu.RUnlock()
	return g.entryPoint, g.maxLayer
}

// SetEntryPoint makes id the entry point and sets the max layer to its level.
func (g *Graph) SetEntryPoint(id uint32) error {
	n := g.node(id)
	if n == nil {
		return fmt.Errorf("%w: %d", ErrNodeOutOfRange, id)
	}
	g.epMu.Lock()
	g.entryPoint = id
	g.maxLayer = n.level
	g.epMu.Unlock()
	return nil
}

// claimEntry installs id as the entry point if the graph has none. Otherwise
// it returns the current entry point and max layer.
func (g *Graph) claimEntry(id uint32, level int) (ep uint32, maxLayer int, claimed bool) {
	g.epMu.Lock()
	defer g.epMu.Unlock()
	if g.maxLayer < 0 {
		g.entryPoint = id
		g.maxLayer = level
		return id, level, true
	}
	return g.entryPoint, g.maxLayer, false
}

// promote makes id the entry point if its level is higher than the current
// maximum, or equal with a smaller id.
func (g *Graph) promote(id uint32, level int) {
	g.epMu.Lock()
	defer g.epMu.Unlock()
	if level > g.maxLayer || (level == g.maxLayer && id < g.entryPoint) {
		g.entryPoint = id
		g.maxLayer = level
	}
}

// Level returns the maximum layer of node id, or -1 if id is out of range.
func (g *Graph) Level(id uint32) int {
	n := g.node(id)
	if n == nil {
		return -1
	}
	return n.level
}

// VectorOf returns the vector of node id. The slice aliases store memory.
func (g *Graph) VectorOf(id uint32) ([]float32, error) {
	if int(id) >= g.Len() {
		return nil, fmt.Errorf("%w: %d", ErrNodeOutOfRange, id)
	}
	return g.store.Get(id), nil
}

// Neighbors returns a copy of the adjacency list of id at layer. It returns
// nil if the node does not exist at that layer.
func (g *Graph) Neighbors(id uint32, layer int) []uint32 {
	return g.neighborsInto(id, layer, nil)
}

func (g *Graph) neighborsInto(id uint32, layer int, dst []uint32) []uint32 {
	n := g.node(id)
	if n == nil {
		return dst
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	if layer < 0 || layer > n.level {
		return dst
	}
	return append(dst, n.neighbors[layer]...)
}

// SetNeighbors replaces the adjacency list of id at layer. The list must fit
// the layer cap, and every neighbor must exist at that layer.
func (g *Graph) SetNeighbors(id uint32, layer int, ids []uint32) error {
	g.world.RLock()
	defer g.world.RUnlock()

	n := g.node(id)
	if n == nil {
		return fmt.Errorf("%w: %d", ErrNodeOutOfRange, id)
	}
	if layer < 0 || layer > n.level {
		return fmt.Errorf("%w: node %d has level %d, got layer %d", ErrLayerOutOfRange, id, n.level, layer)
	}
	if c := g.params.Capacity(layer); len(ids) > c {
		return fmt.Errorf("%w: %d > %d at layer %d", ErrTooManyNeighbors, len(ids), c, layer)
	}
	for _, nb := range ids {
		if g.Level(nb) < layer {
			return fmt.Errorf("%w: neighbor %d does not exist at layer %d", ErrNodeOutOfRange, nb, layer)
		}
	}

	list := make([]uint32, len(ids))
	copy(list, ids)

	n.mu.Lock()
	n.neighbors[layer] = list
	n.mu.Unlock()
	return nil
}

// distance returns the distance from q to the vector of node id.
func (g *Graph) distance(q []float32, id uint32) float32 {
	return g.distFunc(q, g.store.Get(id))
}
