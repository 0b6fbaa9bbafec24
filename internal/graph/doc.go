// Package graph implements the neighborhood graph and its best-first
// traversal.
//
// Each node keeps an edge list ordered by (distance, ID). New nodes are
// linked to the neighbors found by Search; with reciprocal edges enabled
// every neighbor also receives a back edge, truncated to EdgeSizeLimit.
//
// Removal only tombstones a node. Tombstoned nodes remain traversable so
// the graph stays connected, but they are never returned. Compact repairs
// the edges around tombstones and drops them.
//
// The graph is not safe for concurrent mutation. Search only reads the
// graph and may run concurrently with other searches.
package graph
