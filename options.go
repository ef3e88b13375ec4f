package navgraph

import (
	"log/slog"

	"github.com/navgraph/navgraph/distance"
	"github.com/navgraph/navgraph/hnsw"
	"github.com/navgraph/navgraph/persistence"
	"github.com/navgraph/navgraph/vectorstore"
)

// DefaultEFSearch is the beam width used by Search unless WithEFSearch is given.
const DefaultEFSearch = 64

type options struct {
	graph            []func(o *hnsw.Options)
	efSearch         int
	normalize        bool
	compression      persistence.Compression
	embedVectors     bool
	store            vectorstore.VectorStore
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures index construction, search and persistence.
type Option func(*options)

// WithM sets the neighbor cap for layers above 0. Layer 0 gets 2*m unless
// WithM0 is also given.
func WithM(m int) Option {
	return func(o *options) {
		o.graph = append(o.graph, func(g *hnsw.Options) { g.M = m })
	}
}

// WithM0 sets the neighbor cap for layer 0.
func WithM0(m0 int) Option {
	return func(o *options) {
		o.graph = append(o.graph, func(g *hnsw.Options) { g.M0 = m0 })
	}
}

// WithEFConstruction sets the beam width used while inserting.
func WithEFConstruction(ef int) Option {
	return func(o *options) {
		o.graph = append(o.graph, func(g *hnsw.Options) { g.EFConstruction = ef })
	}
}

// WithLevelMultiplier overrides mL, the level generation factor.
func WithLevelMultiplier(mL float64) Option {
	return func(o *options) {
		o.graph = append(o.graph, func(g *hnsw.Options) { g.LevelMultiplier = mL })
	}
}

// WithMetric selects the distance metric.
func WithMetric(m distance.Metric) Option {
	return func(o *options) {
		o.graph = append(o.graph, func(g *hnsw.Options) { g.Metric = m })
	}
}

// WithSeed seeds level assignment.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.graph = append(o.graph, func(g *hnsw.Options) { g.Seed = seed })
	}
}

// WithWorkers bounds the goroutines used by Build.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.graph = append(o.graph, func(g *hnsw.Options) { g.Workers = n })
	}
}

// WithKeepPrunedConnections fills free neighbor slots with candidates the
// diversity heuristic discarded.
func WithKeepPrunedConnections() Option {
	return func(o *options) {
		o.graph = append(o.graph, func(g *hnsw.Options) { g.KeepPrunedConnections = true })
	}
}

// WithEFSearch sets the default beam width for queries.
func WithEFSearch(ef int) Option {
	return func(o *options) {
		o.efSearch = ef
	}
}

// WithNormalization L2-normalizes every inserted vector and every query, so
// that the inner-product metric ranks by cosine similarity. Build copies the
// source vectors into memory to normalize them.
func WithNormalization() Option {
	return func(o *options) {
		o.normalize = true
	}
}

// WithCompression selects the body compression used by Save and SaveFile.
func WithCompression(c persistence.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithEmbeddedVectors makes Save and SaveFile store the raw vectors in the
// index so it can be loaded without the original dataset.
func WithEmbeddedVectors() Option {
	return func(o *options) {
		o.embedVectors = true
	}
}

// WithVectorStore makes Load and LoadFile attach the graph to store instead
// of vectors embedded in the file.
func WithVectorStore(store vectorstore.VectorStore) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &navgraph.BasicMetricsCollector{}
//	idx, _ := navgraph.New(128, navgraph.WithMetricsCollector(metrics))
//	// ... use idx ...
//	stats := metrics.GetStats()
//	fmt.Printf("Searches: %d, Avg latency: %dns\n", stats.SearchCount, stats.SearchAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := navgraph.NewJSONLogger(slog.LevelInfo)
//	idx, _ := navgraph.New(128, navgraph.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		efSearch:         DefaultEFSearch,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}

func (o *options) persistenceOptions() []func(*persistence.Options) {
	fns := []func(*persistence.Options){
		persistence.WithCompression(o.compression),
		persistence.WithGraphOptions(o.graph...),
	}
	if o.embedVectors {
		fns = append(fns, persistence.WithVectors())
	}
	if o.store != nil {
		fns = append(fns, persistence.WithStore(o.store))
	}
	return fns
}
