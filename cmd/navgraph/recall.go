package main

import (
	"cmp"
	"slices"

	"github.com/navgraph/navgraph"
	"github.com/navgraph/navgraph/distance"
)

// measureRecall returns the mean recall@k of results against a brute-force
// scan over the vectors the index holds.
func measureRecall(idx *navgraph.Index, queries [][]float32, results [][]navgraph.Result, k int) (float64, error) {
	if len(queries) == 0 {
		return 1, nil
	}

	g := idx.Graph()
	fn, err := distance.Provider(g.Params().Metric)
	if err != nil {
		return 0, err
	}
	base := allVectors(g.Store())[:g.Len()]

	var total float64
	for i, q := range queries {
		total += recall(exactTopK(q, base, k, fn), results[i])
	}
	return total / float64(len(queries)), nil
}

// exactTopK scans base and returns the k nearest vectors to q, ties broken
// by smaller id.
func exactTopK(q []float32, base [][]float32, k int, fn distance.Func) []navgraph.Result {
	all := make([]navgraph.Result, len(base))
	for i, v := range base {
		all[i] = navgraph.Result{ID: uint32(i), Distance: fn(q, v)}
	}
	slices.SortFunc(all, func(a, b navgraph.Result) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return all[:min(k, len(all))]
}

// recall is the fraction of truth ids found in approx, over the shorter of
// the two lists. Two empty lists have recall 1.
func recall(truth, approx []navgraph.Result) float64 {
	k := min(len(truth), len(approx))
	if k == 0 {
		if len(truth) == len(approx) {
			return 1
		}
		return 0
	}

	want := make(map[uint32]struct{}, k)
	for _, r := range truth[:k] {
		want[r.ID] = struct{}{}
	}
	hits := 0
	for _, r := range approx[:k] {
		if _, ok := want[r.ID]; ok {
			hits++
		}
	}
	return float64(hits) / float64(k)
}
