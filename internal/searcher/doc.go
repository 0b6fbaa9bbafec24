// Package searcher provides pooled scratch state for graph traversal.
//
// The Searcher struct owns all reusable resources needed for a search:
//   - Priority queues (frontier, results)
//   - Visited set (bitset with dirty list)
//
// Searchers are reused across queries through a sync.Pool.
package searcher
