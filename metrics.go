package navgraph

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector defines an interface for collecting operational metrics.
// PrometheusCollector is the built-in integration with Prometheus.
type MetricsCollector interface {
	// RecordInsert is called after each insert operation.
	// duration is the total time taken, err is nil if successful.
	RecordInsert(duration time.Duration, err error)

	// RecordBuild is called after a bulk build of count vectors.
	RecordBuild(count int, duration time.Duration, err error)

	// RecordSearch is called after each search operation.
	// k is the number of neighbors requested, duration is the time taken,
	// err is nil if successful.
	RecordSearch(k int, duration time.Duration, err error)

	// RecordSave is called after each save.
	RecordSave(duration time.Duration, err error)

	// RecordLoad is called after each load. nodes is the size of the loaded graph.
	RecordLoad(nodes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInsert(time.Duration, error)      {}
func (NoopMetricsCollector) RecordBuild(int, time.Duration, error)  {}
func (NoopMetricsCollector) RecordSearch(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSave(time.Duration, error)        {}
func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)   {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	InsertCount      atomic.Int64
	InsertErrors     atomic.Int64
	InsertTotalNanos atomic.Int64
	BuildCount       atomic.Int64
	BuildVectors     atomic.Int64
	BuildErrors      atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchTotalNanos atomic.Int64
	SaveCount        atomic.Int64
	SaveErrors       atomic.Int64
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
}

// RecordInsert implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInsert(duration time.Duration, err error) {
	b.InsertCount.Add(1)
	b.InsertTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InsertErrors.Add(1)
	}
}

// RecordBuild implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBuild(count int, _ time.Duration, err error) {
	b.BuildCount.Add(1)
	if err != nil {
		b.BuildErrors.Add(1)
		return
	}
	b.BuildVectors.Add(int64(count))
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_ int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(_ time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(_ int, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InsertCount:    b.InsertCount.Load(),
		InsertErrors:   b.InsertErrors.Load(),
		InsertAvgNanos: avg(b.InsertTotalNanos.Load(), b.InsertCount.Load()),
		BuildCount:     b.BuildCount.Load(),
		BuildVectors:   b.BuildVectors.Load(),
		BuildErrors:    b.BuildErrors.Load(),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchAvgNanos: avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		SaveCount:      b.SaveCount.Load(),
		SaveErrors:     b.SaveErrors.Load(),
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	InsertCount    int64
	InsertErrors   int64
	InsertAvgNanos int64
	BuildCount     int64
	BuildVectors   int64
	BuildErrors    int64
	SearchCount    int64
	SearchErrors   int64
	SearchAvgNanos int64
	SaveCount      int64
	SaveErrors     int64
	LoadCount      int64
	LoadErrors     int64
}

// PrometheusCollector exports operation latencies, error counts and the
// graph size as Prometheus metrics.
type PrometheusCollector struct {
	latency *prometheus.HistogramVec
	errors  *prometheus.CounterVec
	vectors prometheus.Counter
	nodes   prometheus.Gauge
}

// NewPrometheusCollector creates a collector and registers its metrics on
// reg. namespace prefixes every metric name; empty means "navgraph".
func NewPrometheusCollector(reg prometheus.Registerer, namespace string) (*PrometheusCollector, error) {
	if namespace == "" {
		namespace = "navgraph"
	}

	p := &PrometheusCollector{
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of index operations.",
			Buckets:   []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"op"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operation_errors_total",
			Help:      "Number of failed index operations.",
		}, []string{"op"}),
		vectors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vectors_indexed_total",
			Help:      "Number of vectors linked into the graph.",
		}),
		nodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Number of nodes in the most recently loaded graph.",
		}),
	}

	for _, c := range []prometheus.Collector{p.latency, p.errors, p.vectors, p.nodes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *PrometheusCollector) observe(op string, duration time.Duration, err error) {
	p.latency.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		p.errors.WithLabelValues(op).Inc()
	}
}

// RecordInsert implements MetricsCollector.
func (p *PrometheusCollector) RecordInsert(duration time.Duration, err error) {
	p.observe("insert", duration, err)
	if err == nil {
		p.vectors.Inc()
	}
}

// RecordBuild implements MetricsCollector.
func (p *PrometheusCollector) RecordBuild(count int, duration time.Duration, err error) {
	p.observe("build", duration, err)
	if err == nil {
		p.vectors.Add(float64(count))
	}
}

// RecordSearch implements MetricsCollector.
func (p *PrometheusCollector) RecordSearch(_ int, duration time.Duration, err error) {
	p.observe("search", duration, err)
}

// RecordSave implements MetricsCollector.
func (p *PrometheusCollector) RecordSave(duration time.Duration, err error) {
	p.observe("save", duration, err)
}

// RecordLoad implements MetricsCollector.
func (p *PrometheusCollector) RecordLoad(nodes int, duration time.Duration, err error) {
	p.observe("load", duration, err)
	if err == nil {
		p.nodes.Set(float64(nodes))
	}
}
