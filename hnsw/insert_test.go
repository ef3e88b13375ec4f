package hnsw

import (
	"errors"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navgraph/navgraph/testutil"
	"github.com/navgraph/navgraph/vectorstore"
)

func TestInsert_First(t *testing.T) {
	g, err := New(3)
	require.NoError(t, err)

	ins, err := NewInserter(g, rand.New(rand.NewPCG(1, 2)))
	require.NoError(t, err)

	id, err := ins.Insert([]float32{1, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, uint32(0), id)

	ep, ok := g.EntryPoint()
	require.True(t, ok)
	assert.Equal(t, uint32(0), ep)
	assert.Equal(t, g.Level(0), g.MaxLayer())
	for l := 0; l <= g.Level(0); l++ {
		assert.Empty(t, g.Neighbors(0, l))
	}
}

func TestInsert_DimensionMismatch(t *testing.T) {
	g, err := New(3)
	require.NoError(t, err)

	ins, err := NewInserter(g, nil)
	require.NoError(t, err)

	_, err = ins.Insert([]float32{1, 0})

	var dimErr *ErrDimensionMismatch
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Actual)

	// No partial insertion.
	assert.Equal(t, 0, g.Len())
	assert.Equal(t, 0, g.Store().Count())
	_, ok := g.EntryPoint()
	assert.False(t, ok)
}

type readOnlyStore struct{ vectorstore.VectorStore }

func TestNewInserter_ReadOnlyStore(t *testing.T) {
	store, _ := unitStore(t, 1, 10, 4)
	g, err := Build(readOnlyStore{store})
	require.NoError(t, err)

	_, err = NewInserter(g, nil)
	assert.ErrorIs(t, err, vectorstore.ErrReadOnly)
}

func TestInsert_CapAndEntryPointAfterEveryInsertion(t *testing.T) {
	g, err := New(8, withM(4, 32))
	require.NoError(t, err)

	ins, err := NewInserter(g, rand.New(rand.NewPCG(7, 7)))
	require.NoError(t, err)

	for i, v := range testutil.NewRNG(3).UnitVectors(300, 8) {
		id, err := ins.Insert(v)
		require.NoError(t, err)
		require.Equal(t, uint32(i), id)

		checkCaps(t, g)
		checkEntryPoint(t, g)
	}

	require.NoError(t, g.Validate())
}

func TestInsert_Duplicates(t *testing.T) {
	g, err := New(2, withM(2, 10))
	require.NoError(t, err)

	ins, err := NewInserter(g, nil)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		id, err := ins.Insert([]float32{1, 0})
		require.NoError(t, err)
		assert.Equal(t, uint32(i), id)
	}

	assert.Equal(t, 10, g.Len())
	require.NoError(t, g.Validate())

	res, err := g.Search([]float32{1, 0}, 3, 10)
	require.NoError(t, err)
	require.Len(t, res, 3)
	for _, r := range res {
		assert.InDelta(t, 0, r.Distance, 1e-6)
	}
}

func TestInsert_AfterBuild(t *testing.T) {
	g, vecs := buildRandom(t, 5, 100, 8, withM(8, 64))

	ins, err := NewInserter(g, nil)
	require.NoError(t, err)

	extra := testutil.NewRNG(6).UnitVectors(50, 8)
	for i, v := range extra {
		id, err := ins.Insert(v)
		require.NoError(t, err)
		assert.Equal(t, uint32(len(vecs)+i), id)
	}

	assert.Equal(t, 150, g.Len())
	require.NoError(t, g.Validate())

	res, err := g.Search(extra[0], 1, 64)
	require.NoError(t, err)
	assert.Equal(t, uint32(100), res[0].ID)
}

func TestInsert_ConcurrentWithSearch(t *testing.T) {
	const (
		writers   = 4
		perWriter = 150
		dim       = 8
	)

	g, err := New(dim, withM(8, 64))
	require.NoError(t, err)

	ins, err := NewInserter(g, nil)
	require.NoError(t, err)

	data := testutil.NewRNG(11).UnitVectors(writers*perWriter, dim)
	queries := testutil.NewRNG(12).UnitVectors(20, dim)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, v := range data[w*perWriter : (w+1)*perWriter] {
				_, err := ins.Insert(v)
				assert.NoError(t, err)
			}
		}()
	}

	done := make(chan struct{})
	var readers sync.WaitGroup
	for r := 0; r < 2; r++ {
		readers.Add(1)
		go func() {
			defer readers.Done()
			for {
				select {
				case <-done:
					return
				default:
				}
				for _, q := range queries {
					_, err := g.Search(q, 5, 32)
					assert.NoError(t, err)
				}
			}
		}()
	}

	wg.Wait()
	close(done)
	readers.Wait()

	assert.Equal(t, writers*perWriter, g.Len())
	require.NoError(t, g.Validate())
	assert.GreaterOrEqual(t, int(g.Reachable().GetCardinality()), writers*perWriter*99/100)
}

func TestDrawLevel(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 1))
	mL := 1 / 0.6931471805599453 // M = 2

	counts := make(map[int]int)
	for i := 0; i < 10000; i++ {
		l := drawLevel(rng, mL)
		require.GreaterOrEqual(t, l, 0)
		require.LessOrEqual(t, l, maxLevel)
		counts[l]++
	}

	// Each level holds roughly half the nodes of the one below.
	assert.InDelta(t, 5000, counts[0], 300)
	assert.InDelta(t, 2500, counts[1], 300)
	assert.Less(t, counts[3], counts[2])

	assert.Equal(t, 0, drawLevel(rng, 0))
}
