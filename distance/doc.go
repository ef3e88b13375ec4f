// Package distance provides the vector distance strategies used by the graph.
//
// All functions return a distance where smaller means more similar, so the
// search code can order candidates the same way for every metric.
//
// # Supported Metrics
//
//   - MetricInnerProduct: 1 - dot(a, b); assumes L2-normalized input (default)
//   - MetricCosine: 1 - cosine similarity, norms computed on the fly
//   - MetricL2: squared Euclidean distance
//
// Dot products and norms use SIMD kernels from github.com/viterin/vek
// when the CPU supports them.
//
// # Usage
//
//	fn, _ := distance.Provider(distance.MetricInnerProduct)
//	d := fn(a, b)
//	distance.NormalizeL2InPlace(vec)
package distance
