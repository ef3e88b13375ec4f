package hnsw

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/navgraph/navgraph/internal/searcher"
	"github.com/navgraph/navgraph/vectorstore"
)

// Inserter grows a graph one vector at a time. It is safe for concurrent use;
// concurrent inserts may also run alongside searches.
type Inserter struct {
	g   *Graph
	app vectorstore.Appender

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewInserter returns an Inserter for g. The graph's store must implement
// vectorstore.Appender. A nil rng uses a source seeded with the graph's Seed.
func NewInserter(g *Graph, rng *rand.Rand) (*Inserter, error) {
	app, ok := g.store.(vectorstore.Appender)
	if !ok {
		return nil, fmt.Errorf("hnsw: cannot insert: %w", vectorstore.ErrReadOnly)
	}
	if rng == nil {
		rng = newRand(g.seed)
	}
	return &Inserter{g: g, app: app, rng: rng}, nil
}

// Insert appends v to the store and links it into the graph. It returns the
// new node id. Nothing is modified if v has the wrong dimension.
func (ins *Inserter) Insert(v []float32) (uint32, error) {
	g := ins.g
	if err := checkDimension(g.params.Dimension, v); err != nil {
		return 0, err
	}

	ins.mu.Lock()
	level := drawLevel(ins.rng, g.params.LevelMultiplier)
	ins.mu.Unlock()

	g.world.RLock()
	defer g.world.RUnlock()

	id, err := g.add(ins.app, v, level)
	if err != nil {
		return 0, err
	}

	sc := searcher.Get()
	defer searcher.Put(sc)

	g.link(sc, id)

	return id, nil
}

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// drawLevel returns floor(-ln(u) * mL) for u uniform in (0, 1].
func drawLevel(rng *rand.Rand, mL float64) int {
	u := 1 - rng.Float64()
	level := int(math.Floor(-math.Log(u) * mL))
	return min(max(level, 0), maxLevel)
}

// add appends v to the store and creates its node. Store index and node id
// stay equal because both happen under nodesMu.
func (g *Graph) add(app vectorstore.Appender, v []float32, level int) (uint32, error) {
	g.nodesMu.Lock()
	defer g.nodesMu.Unlock()

	if n := g.store.Count(); n != len(g.nodes) {
		return 0, fmt.Errorf("hnsw: store holds %d vectors but graph has %d nodes", n, len(g.nodes))
	}

	id, err := app.Append(v)
	if err != nil {
		return 0, err
	}
	g.nodes = append(g.nodes, newNode(level))

	return id, nil
}

// link connects an already created node into the graph.
func (g *Graph) link(sc *searcher.Context, id uint32) {
	level := g.node(id).level

	ep, maxLayer, claimed := g.claimEntry(id, level)
	if claimed {
		return
	}

	q := g.store.Get(id)
	sc.Visited.EnsureCapacity(g.Len())

	cur := []searcher.Item{{ID: ep, Distance: g.distance(q, ep)}}
	var next []searcher.Item

	// 1. Greedy descent above the node's level
	for layer := maxLayer; layer > level; layer-- {
		next = g.searchLayer(sc, q, cur, 1, layer, next)
		cur, next = next, cur
	}

	// 2. Search and link from the node's level down to 0
	var selected []searcher.Item
	for layer := min(level, maxLayer); layer >= 0; layer-- {
		next = g.searchLayer(sc, q, cur, g.params.EFConstruction, layer, next)
		cur, next = next, cur

		selected = g.selectNeighbors(cur, g.params.Capacity(layer), id, selected)
		g.connect(id, layer, selected)
	}

	g.promote(id, level)
}

// connect sets the adjacency list of id at layer to selected and adds the
// back-edges. All touched nodes are locked in ascending id order.
func (g *Graph) connect(id uint32, layer int, selected []searcher.Item) {
	ids := make([]uint32, 0, len(selected)+1)
	ids = append(ids, id)
	for _, s := range selected {
		ids = append(ids, s.ID)
	}
	slices.Sort(ids)

	locked := make([]*node, len(ids))
	for i, nid := range ids {
		n := g.node(nid)
		n.mu.Lock()
		locked[i] = n
	}
	defer func() {
		for i := len(locked) - 1; i >= 0; i-- {
			locked[i].mu.Unlock()
		}
	}()

	list := make([]uint32, len(selected))
	for i, s := range selected {
		list[i] = s.ID
	}
	g.node(id).neighbors[layer] = list

	capacity := g.params.Capacity(layer)
	for _, s := range selected {
		nb := g.node(s.ID)
		if layer > nb.level {
			continue
		}

		existing := nb.neighbors[layer]
		if slices.Contains(existing, id) {
			continue
		}
		if len(existing) < capacity {
			nb.neighbors[layer] = append(existing, id)
			continue
		}
		nb.neighbors[layer] = g.shrink(s.ID, existing, id, s.Distance, capacity)
	}
}
