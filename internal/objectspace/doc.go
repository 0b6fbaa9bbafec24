// Package objectspace stores the objects of an index and computes
// distances between them.
//
// Objects are kept in the element type of the space (float32, float16 or
// uint8) in a slice indexed by ObjectID. Removal is logical: the data of
// a removed object stays available for graph traversal until it is purged
// by a rebuild, which also returns its ID to the free list. Purged IDs are
// reused smallest first by later insertions.
//
// A Space is not safe for concurrent mutation. Concurrent reads are safe
// while no mutation is in progress.
package objectspace
