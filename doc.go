// Package navgraph is an in-memory approximate nearest neighbor index built
// on a Hierarchical Navigable Small World graph.
//
// # Quick Start
//
// Incremental construction:
//
//	ctx := context.Background()
//	idx, _ := navgraph.New(128, navgraph.WithMetric(distance.MetricL2))
//	id, _ := idx.Insert(ctx, vector)
//	results, _ := idx.Search(ctx, query, 10)
//
// Bulk construction from an existing vector source:
//
//	store, _ := vectorstore.OpenMapped("base.fvecs")
//	idx, _ := navgraph.Build(ctx, store, navgraph.WithWorkers(8))
//	defer idx.Close()
//
// Node ids are the positions of vectors in the store, so id i always refers
// to vector i.
//
// # Persistence
//
// An index is saved as a checksummed binary file, optionally compressed and
// optionally carrying its vectors:
//
//	err := idx.SaveFile(ctx, "index.ngx")
//	idx, err := navgraph.LoadFile(ctx, "index.ngx", navgraph.WithVectorStore(store))
//
// Save and Load accept any blobstore.BlobStore, which covers the local file
// system, S3 and MinIO.
//
// # Observability
//
// Operations are logged through log/slog (WithLogger) and recorded by a
// MetricsCollector (WithMetricsCollector). PrometheusCollector exports the
// same measurements to a Prometheus registry.
//
// # Concurrency
//
// Insert and Search may be called from any number of goroutines. Save takes
// a consistent snapshot and blocks inserts only while the snapshot is taken.
package navgraph
