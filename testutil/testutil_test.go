package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navgraph/navgraph/distance"
)

func TestUniformVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UniformVectors(8, 32)

	assert.Equal(t, 8, len(v))
	assert.Equal(t, 32, len(v[0]))
	assert.LessOrEqual(t, v[0][0], float32(1.0))
	assert.GreaterOrEqual(t, v[1][0], float32(0.0))
}

func TestUnitVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UnitVectors(8, 32)

	assert.Equal(t, 8, len(v))
	assert.Equal(t, 32, len(v[0]))

	for _, vec := range v {
		var sum float32
		for _, val := range vec {
			sum += val * val
		}
		assert.InDelta(t, float32(1.0), sum, 1e-5)
	}
}

func TestClusteredVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.ClusteredVectors(100, 32, 5, 0.01)

	assert.Equal(t, 100, len(v))
	assert.Equal(t, 32, len(v[0]))

	// Members of the same cluster sit close together, other clusters far away.
	assert.Less(t, distance.SquaredL2(v[0], v[5]), float32(0.1))
	assert.Less(t, distance.SquaredL2(v[0], v[5]), distance.SquaredL2(v[0], v[1]))
}

func TestSameSeedSameVectors(t *testing.T) {
	assert.Equal(t, NewRNG(7).UnitVectors(3, 4), NewRNG(7).UnitVectors(3, 4))
	assert.NotEqual(t, NewRNG(7).UnitVectors(3, 4), NewRNG(8).UnitVectors(3, 4))
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.UniformVectors(1, 10)

	rng.Reset()
	v2 := rng.UniformVectors(1, 10)

	assert.Equal(t, v1, v2)
}

func TestExactTopK(t *testing.T) {
	vecs := [][]float32{{0, 0}, {3, 0}, {1, 0}, {1, 0}}

	got := ExactTopK([]float32{0, 0}, vecs, 3, distance.SquaredL2)
	require.Len(t, got, 3)
	assert.Equal(t, []uint32{0, 2, 3}, []uint32{got[0].ID, got[1].ID, got[2].ID})

	all := ExactTopK([]float32{0, 0}, vecs, 10, distance.SquaredL2)
	assert.Len(t, all, 4)
}

func TestComputeRecall(t *testing.T) {
	truth := []SearchResult{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}

	assert.Equal(t, 1.0, ComputeRecall(truth, truth))
	assert.Equal(t, 0.5, ComputeRecall(truth, []SearchResult{{ID: 1}, {ID: 9}, {ID: 3}, {ID: 8}}))
	assert.Equal(t, 1.0, ComputeRecall(nil, nil))
	assert.Equal(t, 0.0, ComputeRecall(truth, nil))
}
