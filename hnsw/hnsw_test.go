package hnsw

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/navgraph/navgraph/internal/searcher"
	"github.com/navgraph/navgraph/testutil"
	"github.com/navgraph/navgraph/vectorstore"
)

func unitStore(t *testing.T, seed int64, n, dim int) (*vectorstore.Memory, [][]float32) {
	t.Helper()
	vecs := testutil.NewRNG(seed).UnitVectors(n, dim)
	store, err := vectorstore.FromVectors(dim, vecs)
	require.NoError(t, err)
	return store, vecs
}

func buildRandom(t *testing.T, seed int64, n, dim int, optFns ...func(o *Options)) (*Graph, [][]float32) {
	t.Helper()
	store, vecs := unitStore(t, seed, n, dim)
	g, err := Build(store, optFns...)
	require.NoError(t, err)
	return g, vecs
}

func withM(m, efConstruction int) func(o *Options) {
	return func(o *Options) {
		o.M = m
		o.EFConstruction = efConstruction
	}
}

func checkCaps(t *testing.T, g *Graph) {
	t.Helper()
	p := g.Params()
	for id := 0; id < g.Len(); id++ {
		for l := 0; l <= g.Level(uint32(id)); l++ {
			require.LessOrEqual(t, len(g.Neighbors(uint32(id), l)), p.Capacity(l), "node %d layer %d", id, l)
		}
	}
}

func checkEntryPoint(t *testing.T, g *Graph) {
	t.Helper()
	ep, ok := g.EntryPoint()
	require.True(t, ok)

	top := -1
	for id := 0; id < g.Len(); id++ {
		top = max(top, g.Level(uint32(id)))
	}
	require.Equal(t, top, g.Level(ep))
	require.Equal(t, top, g.MaxLayer())
}

func toItems(rs []Result) []searcher.Item {
	items := make([]searcher.Item, len(rs))
	for i, r := range rs {
		items[i] = searcher.Item{ID: r.ID, Distance: r.Distance}
	}
	return items
}

func sortItems(items []searcher.Item) {
	slices.SortFunc(items, compareItems)
}

func itemIDs(items []searcher.Item) []uint32 {
	ids := make([]uint32, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func resultIDs(rs []Result) []uint32 {
	ids := make([]uint32, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}

func truthIDs(rs []testutil.SearchResult) []uint32 {
	ids := make([]uint32, len(rs))
	for i, r := range rs {
		ids[i] = r.ID
	}
	return ids
}

func toTruth(rs []Result) []testutil.SearchResult {
	out := make([]testutil.SearchResult, len(rs))
	for i, r := range rs {
		out[i] = testutil.SearchResult{ID: r.ID, Distance: r.Distance}
	}
	return out
}
