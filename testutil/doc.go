// Package testutil generates seeded test vectors and computes exact
// nearest neighbors and recall for tests.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vecs := rng.UnitVectors(1000, 128)
//
// # Exact Search (Ground Truth)
//
//	truth := testutil.ExactTopK(query, vecs, k, distance.InnerProduct)
//
// # Recall Verification
//
//	recall := testutil.ComputeRecall(truth, approx)
package testutil
