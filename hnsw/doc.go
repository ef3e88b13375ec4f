// Package hnsw implements Hierarchical Navigable Small World graphs.
//
// A Graph is an arena of nodes addressed by dense uint32 ids. Node i always
// refers to vector i of the graph's VectorStore; the graph never copies
// vectors.
//
// # Construction
//
//   - Build links every vector of a store using a pool of workers.
//   - An Inserter appends vectors one at a time to an appendable store.
//
// Both assign levels from an explicitly seeded random source and select
// neighbors with the diversity heuristic (Malkov & Yashunin, Algorithm 4).
//
// # Concurrency
//
// Searches and insertions may run concurrently. Every node carries its own
// RWMutex; an insertion write-locks the new node and the neighbors it rewires
// at one layer in ascending id order. Neighbor lists are copied under the
// read lock. The entry point and max layer are swapped together under a
// separate lock.
//
// # Parameters
//
//   - M: max connections per node above layer 0 (default: 16)
//   - M0: max connections at layer 0 (default: 2*M)
//   - EFConstruction: beam width while inserting (default: 200)
//   - efSearch: beam width while querying (default: EFConstruction)
//
// # Reference
//
// Malkov & Yashunin, "Efficient and robust approximate nearest neighbor search
// using Hierarchical Navigable Small World graphs", IEEE TPAMI 2018.
package hnsw
