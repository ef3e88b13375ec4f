package hnsw

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navgraph/navgraph/testutil"
	"github.com/navgraph/navgraph/vectorstore"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	g, _ := buildRandom(t, 5, 300, 8, withM(6, 48))
	snap := g.Snapshot()

	restored, err := FromSnapshot(g.Store(), snap)
	require.NoError(t, err)

	assert.Equal(t, snap, restored.Snapshot())
	assert.Equal(t, g.Params(), restored.Params())

	for _, q := range testutil.NewRNG(6).UnitVectors(10, 8) {
		want, err := g.Search(q, 5, 32)
		require.NoError(t, err)
		got, err := restored.Search(q, 5, 32)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// The snapshot is a copy.
	snap.Nodes[0][0] = nil
	assert.NotEqual(t, snap.Nodes[0][0], g.Neighbors(0, 0))
}

func TestSnapshot_Empty(t *testing.T) {
	g, err := New(4)
	require.NoError(t, err)

	snap := g.Snapshot()
	assert.Equal(t, -1, snap.MaxLayer)
	assert.Empty(t, snap.Nodes)

	restored, err := FromSnapshot(vectorstore.NewMemory(4), snap)
	require.NoError(t, err)
	assert.Equal(t, 0, restored.Len())
}

func TestFromSnapshot_RuntimeOptions(t *testing.T) {
	g, _ := buildRandom(t, 5, 50, 4)

	restored, err := FromSnapshot(g.Store(), g.Snapshot(), func(o *Options) {
		o.M = 99 // ignored
		o.KeepPrunedConnections = true
	})
	require.NoError(t, err)
	assert.Equal(t, g.Params().M, restored.Params().M)
	assert.True(t, restored.keepPruned)
}

func TestFromSnapshot_Rejects(t *testing.T) {
	g, _ := buildRandom(t, 5, 50, 4, withM(4, 32))

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := FromSnapshot(vectorstore.NewMemory(3), g.Snapshot())
		var dimErr *ErrDimensionMismatch
		assert.ErrorAs(t, err, &dimErr)
	})

	t.Run("StoreTooSmall", func(t *testing.T) {
		_, err := FromSnapshot(vectorstore.NewMemory(4), g.Snapshot())
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("NeighborOutOfRange", func(t *testing.T) {
		snap := g.Snapshot()
		snap.Nodes[1][0] = []uint32{500}
		_, err := FromSnapshot(g.Store(), snap)
		assert.ErrorIs(t, err, ErrInvariant)
	})

	t.Run("OverCap", func(t *testing.T) {
		snap := g.Snapshot()
		snap.Nodes[1][0] = make([]uint32, snap.Params.M0+1)
		_, err := FromSnapshot(g.Store(), snap)
		assert.ErrorIs(t, err, ErrInvariant)
	})

	t.Run("EntryPointNotOnTop", func(t *testing.T) {
		snap := g.Snapshot()
		snap.MaxLayer++
		_, err := FromSnapshot(g.Store(), snap)
		assert.ErrorIs(t, err, ErrInvariant)
	})

	t.Run("NodeWithoutLayers", func(t *testing.T) {
		snap := g.Snapshot()
		snap.Nodes[2] = nil
		_, err := FromSnapshot(g.Store(), snap)
		assert.ErrorIs(t, err, ErrInvariant)
	})

	t.Run("BadParams", func(t *testing.T) {
		snap := g.Snapshot()
		snap.Params.M = 0
		_, err := FromSnapshot(g.Store(), snap)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})
}
