// Package searcher provides the pooled scratch state used by graph traversal.
//
// A Context owns everything a single layer search needs:
//   - a min-heap of candidates still to expand
//   - a bounded max-heap of the best results found so far
//   - a visited set with O(touched) reset
//
// Contexts are recycled through a sync.Pool so steady-state queries do not
// allocate scratch memory.
package searcher
