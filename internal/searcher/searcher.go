package searcher

import "sync"

// Context is a reusable execution context for one graph search.
//
// Context is NOT thread-safe. It is owned by a single goroutine for the
// duration of a search.
type Context struct {
	// Visited tracks nodes already scored in the current layer search.
	Visited *VisitedSet

	// Candidates is a min-heap of nodes still to expand.
	Candidates *PriorityQueue

	// Results is a bounded max-heap of the best nodes found so far.
	Results *PriorityQueue

	// Neighbors is scratch space for copying a node's adjacency list.
	Neighbors []uint32

	// Scratch is scratch space for sorted result lists.
	Scratch []Item

	// DistanceComputations counts distance evaluations since the last Reset.
	DistanceComputations int
}

var contextPool = sync.Pool{
	New: func() any {
		return New(1024, 128)
	},
}

// New creates a context with the given initial capacities.
func New(visitedCap, queueCap int) *Context {
	return &Context{
		Visited:    NewVisitedSet(visitedCap),
		Candidates: NewPriorityQueue(false),
		Results:    NewPriorityQueue(true),
		Neighbors:  make([]uint32, 0, 64),
		Scratch:    make([]Item, 0, queueCap),
	}
}

// Get returns a reset Context from the pool.
func Get() *Context {
	c := contextPool.Get().(*Context)
	c.Reset()
	return c
}

// Put returns a Context to the pool.
func Put(c *Context) {
	contextPool.Put(c)
}

// Reset clears all state, keeping allocated capacity.
func (c *Context) Reset() {
	c.ResetLayer()
	c.DistanceComputations = 0
}

// ResetLayer clears heaps and the visited set between layer searches. The
// distance counter keeps accumulating.
func (c *Context) ResetLayer() {
	c.Visited.Reset()
	c.Candidates.Reset()
	c.Results.Reset()
	c.Neighbors = c.Neighbors[:0]
	c.Scratch = c.Scratch[:0]
}
