package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/navgraph/navgraph"
	"github.com/navgraph/navgraph/distance"
)

func TestExactTopK(t *testing.T) {
	base := [][]float32{{3, 0}, {1, 0}, {2, 0}, {1, 0}}
	got := exactTopK([]float32{0, 0}, base, 3, distance.SquaredL2)

	ids := make([]uint32, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Equal(t, []uint32{1, 3, 2}, ids)
	assert.Len(t, exactTopK([]float32{0, 0}, base, 10, distance.SquaredL2), 4)
}

func TestRecall(t *testing.T) {
	res := func(ids ...uint32) []navgraph.Result {
		out := make([]navgraph.Result, len(ids))
		for i, id := range ids {
			out[i] = navgraph.Result{ID: id}
		}
		return out
	}

	assert.Equal(t, 1.0, recall(res(1, 2), res(2, 1)))
	assert.Equal(t, 0.5, recall(res(1, 2), res(1, 7)))
	assert.Equal(t, 1.0, recall(nil, nil))
	assert.Equal(t, 0.0, recall(res(1), nil))
	assert.Equal(t, 1.0, recall(res(1, 2, 3), res(1)))
}
