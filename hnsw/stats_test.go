package hnsw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStats(t *testing.T) {
	g, _ := buildRandom(t, 13, 500, 8, withM(8, 64))

	st := g.Stats()
	assert.Equal(t, 500, st.Nodes)
	assert.Equal(t, g.MaxLayer(), st.MaxLayer)
	require.Len(t, st.Levels, st.MaxLayer+1)

	assert.Equal(t, 500, st.Levels[0].Nodes)
	for l := 1; l < len(st.Levels); l++ {
		assert.LessOrEqual(t, st.Levels[l].Nodes, st.Levels[l-1].Nodes)
	}
	assert.Positive(t, st.Levels[0].AvgDegree)
	assert.LessOrEqual(t, st.Levels[0].AvgDegree, float64(g.Params().M0))
	assert.Equal(t, int(g.Reachable().GetCardinality()), st.Reachable)
}

func TestStats_Empty(t *testing.T) {
	g, err := New(4)
	require.NoError(t, err)

	st := g.Stats()
	assert.Equal(t, 0, st.Nodes)
	assert.Equal(t, -1, st.MaxLayer)
	assert.Empty(t, st.Levels)
	assert.Zero(t, st.Reachable)
}
