package navgraph

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/navgraph/navgraph/blobstore"
	"github.com/navgraph/navgraph/distance"
	"github.com/navgraph/navgraph/hnsw"
	"github.com/navgraph/navgraph/persistence"
	"github.com/navgraph/navgraph/vectorstore"
)

// Result is a search hit: a vector id and its distance to the query.
type Result = hnsw.Result

// Index is an HNSW index with logging, metrics and persistence attached.
// All methods are safe for concurrent use.
type Index struct {
	graph *hnsw.Graph
	opts  options

	// store is the caller-visible vector source; with normalization the
	// graph runs over a normalized copy of it.
	store vectorstore.VectorStore

	insOnce sync.Once
	ins     *hnsw.Inserter
	insErr  error

	closeOnce sync.Once
	closeErr  error
}

// New creates an empty index for vectors of length dim.
func New(dim int, optFns ...Option) (*Index, error) {
	opts := applyOptions(optFns)
	g, err := hnsw.New(dim, opts.graph...)
	if err != nil {
		return nil, translateError(err)
	}
	return newIndex(g, opts, g.Store()), nil
}

// Build links every vector of store into a new index, node i referring to
// vector i. If store implements io.Closer, Close closes it.
func Build(ctx context.Context, store vectorstore.VectorStore, optFns ...Option) (*Index, error) {
	opts := applyOptions(optFns)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	n := store.Count()

	src := store
	if opts.normalize {
		src = vectorstore.Normalized(store, distance.NormalizeL2InPlace)
	}

	logger := opts.logger
	step := max(n/10, 1)
	graphOpts := append(opts.graph[:len(opts.graph):len(opts.graph)], func(o *hnsw.Options) {
		o.Progress = func(linked, total int) {
			if linked%step == 0 && linked < total {
				logger.LogBuildProgress(ctx, linked, total)
			}
		}
	})

	logger.LogBuildStart(ctx, n)
	g, err := hnsw.Build(src, graphOpts...)
	err = translateError(err)
	duration := time.Since(start)
	opts.metricsCollector.RecordBuild(n, duration, err)
	opts.logger.LogBuild(ctx, n, duration, err)
	if err != nil {
		return nil, err
	}

	return newIndex(g, opts, store), nil
}

func newIndex(g *hnsw.Graph, opts options, store vectorstore.VectorStore) *Index {
	return &Index{graph: g, opts: opts, store: store}
}

// Graph returns the underlying graph.
func (idx *Index) Graph() *hnsw.Graph { return idx.graph }

// Len returns the number of indexed vectors.
func (idx *Index) Len() int { return idx.graph.Len() }

// Dimension returns the vector length.
func (idx *Index) Dimension() int { return idx.graph.Dimension() }

// Stats returns per-level statistics and layer-0 reachability.
func (idx *Index) Stats() hnsw.Stats { return idx.graph.Stats() }

// Validate checks the structural invariants of the graph.
func (idx *Index) Validate() error { return idx.graph.Validate() }

func (idx *Index) inserter() (*hnsw.Inserter, error) {
	idx.insOnce.Do(func() {
		idx.ins, idx.insErr = hnsw.NewInserter(idx.graph, nil)
	})
	return idx.ins, idx.insErr
}

// Insert adds v to the index and returns its id.
func (idx *Index) Insert(ctx context.Context, v []float32) (uint32, error) {
	start := time.Now()

	id, err := idx.insert(v)
	err = translateError(err)

	idx.opts.metricsCollector.RecordInsert(time.Since(start), err)
	idx.opts.logger.LogInsert(ctx, id, len(v), err)
	return id, err
}

func (idx *Index) insert(v []float32) (uint32, error) {
	ins, err := idx.inserter()
	if err != nil {
		return 0, err
	}
	return ins.Insert(idx.prepareQuery(v))
}

// Search returns up to k nearest vectors to query using the index's
// default beam width.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	return idx.SearchWithEF(ctx, query, k, idx.opts.efSearch)
}

// SearchWithEF is Search with an explicit beam width. efSearch < k is
// raised to k; efSearch <= 0 uses efConstruction.
func (idx *Index) SearchWithEF(ctx context.Context, query []float32, k, efSearch int) ([]Result, error) {
	start := time.Now()

	q := idx.prepareQuery(query)
	results, err := idx.graph.Search(q, k, efSearch)
	err = translateError(err)

	idx.opts.metricsCollector.RecordSearch(k, time.Since(start), err)
	idx.opts.logger.LogSearch(ctx, k, len(results), err)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SearchBatch answers all queries concurrently and returns the results in
// input order.
func (idx *Index) SearchBatch(ctx context.Context, queries [][]float32, k int) ([][]Result, error) {
	start := time.Now()

	qs := queries
	if idx.opts.normalize {
		qs = make([][]float32, len(queries))
		for i, q := range queries {
			qs[i] = idx.prepareQuery(q)
		}
	}

	results, err := hnsw.SearchBatch(idx.graph, qs, k, idx.opts.efSearch)
	err = translateError(err)

	idx.opts.metricsCollector.RecordSearch(k, time.Since(start), err)
	idx.opts.logger.LogSearch(ctx, k, len(results), err)
	if err != nil {
		return nil, err
	}
	return results, nil
}

// prepareQuery normalizes q when the index is configured to. Zero vectors
// are passed through unchanged.
func (idx *Index) prepareQuery(q []float32) []float32 {
	if !idx.opts.normalize {
		return q
	}
	if out, ok := distance.NormalizeL2Copy(q); ok {
		return out
	}
	return q
}

// Save writes the index to the blob name of store.
func (idx *Index) Save(ctx context.Context, store blobstore.BlobStore, name string) error {
	start := time.Now()

	err := persistence.Save(ctx, store, name, idx.graph, idx.opts.persistenceOptions()...)
	err = translateError(err)

	idx.opts.metricsCollector.RecordSave(time.Since(start), err)
	idx.opts.logger.LogSave(ctx, name, idx.Len(), err)
	return err
}

// SaveFile writes the index to a local file.
func (idx *Index) SaveFile(ctx context.Context, path string) error {
	start := time.Now()

	err := persistence.SaveFile(path, idx.graph, idx.opts.persistenceOptions()...)
	err = translateError(err)

	idx.opts.metricsCollector.RecordSave(time.Since(start), err)
	idx.opts.logger.LogSave(ctx, path, idx.Len(), err)
	return err
}

// Load reads an index saved with Save. Graph parameters come from the
// file; optFns supply search, logging and vector store options.
//
// Normalization is not recorded in the file. An index built with
// WithNormalization must be loaded with it too, so that queries and a
// store passed with WithVectorStore are normalized the same way.
func Load(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Index, error) {
	opts, src := loadOptions(optFns)
	start := time.Now()

	g, err := persistence.Load(ctx, store, name, opts.persistenceOptions()...)
	return finishLoad(ctx, name, g, err, opts, src, start)
}

// LoadFile reads an index saved with SaveFile.
func LoadFile(ctx context.Context, path string, optFns ...Option) (*Index, error) {
	opts, src := loadOptions(optFns)
	start := time.Now()

	g, err := persistence.LoadFile(path, opts.persistenceOptions()...)
	return finishLoad(ctx, path, g, err, opts, src, start)
}

// loadOptions resolves optFns and returns the caller's vector store, which
// the graph uses through a normalized copy when normalization is on.
func loadOptions(optFns []Option) (options, vectorstore.VectorStore) {
	opts := applyOptions(optFns)
	src := opts.store
	if opts.normalize && src != nil {
		opts.store = vectorstore.Normalized(src, distance.NormalizeL2InPlace)
	}
	return opts, src
}

func finishLoad(ctx context.Context, name string, g *hnsw.Graph, err error, opts options, src vectorstore.VectorStore, start time.Time) (*Index, error) {
	err = translateError(err)
	nodes := 0
	if g != nil {
		nodes = g.Len()
	}

	opts.metricsCollector.RecordLoad(nodes, time.Since(start), err)
	opts.logger.LogLoad(ctx, name, nodes, err)
	if err != nil {
		return nil, err
	}
	if src == nil {
		src = g.Store()
	}
	return newIndex(g, opts, src), nil
}

// Close releases the vector store backing the index if it holds resources
// such as a memory mapping. The index must not be used afterwards.
func (idx *Index) Close() error {
	if idx == nil {
		return nil
	}
	idx.closeOnce.Do(func() {
		idx.closeErr = closeStore(idx.store)
	})
	return idx.closeErr
}

func closeStore(store vectorstore.VectorStore) error {
	c, ok := store.(io.Closer)
	if !ok {
		return nil
	}
	if err := c.Close(); err != nil {
		return fmt.Errorf("navgraph: close vector store: %w", err)
	}
	return nil
}
