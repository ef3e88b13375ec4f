package testutil

import (
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/navgraph/navgraph/distance"
)

// SearchResult is a ground-truth or approximate neighbor.
type SearchResult struct {
	ID       uint32
	Distance float32
}

// RNG is a seeded, goroutine-safe source of test vectors. Two RNGs with the
// same seed produce the same sequence.
type RNG struct {
	mu   sync.Mutex
	seed int64
	src  *rand.PCG
	rand *rand.Rand
}

// NewRNG returns an RNG seeded with seed.
func NewRNG(seed int64) *RNG {
	src := rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15)
	return &RNG{seed: seed, src: src, rand: rand.New(src)}
}

// Reset rewinds the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.src.Seed(uint64(r.seed), uint64(r.seed)^0x9e3779b97f4a7c15)
}

// generate returns num vectors of length dim sharing one backing array,
// each filled by fill with the lock held.
func (r *RNG) generate(num, dim int, fill func(vec []float32)) [][]float32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float32, num*dim)
	vectors := make([][]float32, num)
	for i := range vectors {
		vectors[i] = data[i*dim : (i+1)*dim : (i+1)*dim]
		fill(vectors[i])
	}
	return vectors
}

// UniformVectors returns vectors with components in [0, 1).
func (r *RNG) UniformVectors(num, dim int) [][]float32 {
	return r.generate(num, dim, func(vec []float32) {
		for j := range vec {
			vec[j] = r.rand.Float32()
		}
	})
}

// UnitVectors returns L2-normalized vectors with Gaussian directions, the
// usual input for the inner-product metric.
func (r *RNG) UnitVectors(num, dim int) [][]float32 {
	return r.generate(num, dim, r.fillUnit)
}

// UnitVector returns one L2-normalized vector.
func (r *RNG) UnitVector(dim int) []float32 {
	return r.UnitVectors(1, dim)[0]
}

func (r *RNG) fillUnit(vec []float32) {
	for {
		for j := range vec {
			vec[j] = float32(r.rand.NormFloat64())
		}
		if distance.NormalizeL2InPlace(vec) {
			return
		}
	}
}

// ClusteredVectors returns vectors scattered with standard deviation spread
// around clusters random unit centroids, assigned round-robin.
func (r *RNG) ClusteredVectors(num, dim, clusters int, spread float32) [][]float32 {
	centroids := r.UnitVectors(clusters, dim)

	i := 0
	return r.generate(num, dim, func(vec []float32) {
		c := centroids[i%clusters]
		i++
		for j := range vec {
			vec[j] = c[j] + float32(r.rand.NormFloat64())*spread
		}
	})
}

// ExactTopK returns the k vectors nearest to query by brute force, ordered by
// increasing distance with ties broken by smaller id.
func ExactTopK(query []float32, vectors [][]float32, k int, fn distance.Func) []SearchResult {
	all := make([]SearchResult, len(vectors))
	for i, v := range vectors {
		all[i] = SearchResult{ID: uint32(i), Distance: fn(query, v)}
	}

	slices.SortFunc(all, func(a, b SearchResult) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})

	return all[:min(k, len(all))]
}

// ComputeRecall returns the fraction of the first k ground-truth ids found
// among the first k approximate results, k being the shorter length. Two
// empty lists have recall 1.
func ComputeRecall(groundTruth, approximate []SearchResult) float64 {
	if len(groundTruth) == 0 || len(approximate) == 0 {
		if len(groundTruth) == len(approximate) {
			return 1
		}
		return 0
	}

	k := min(len(approximate), len(groundTruth))
	truth := make(map[uint32]struct{}, k)
	for _, r := range groundTruth[:k] {
		truth[r.ID] = struct{}{}
	}

	hits := 0
	for _, r := range approximate[:k] {
		if _, ok := truth[r.ID]; ok {
			hits++
		}
	}
	return float64(hits) / float64(k)
}
