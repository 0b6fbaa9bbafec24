// Package tree implements a dynamic vantage-point tree that locates seed
// nodes for graph searches.
//
// Leaves hold up to LeafSize IDs. An overflowing leaf is split around its
// first member: IDs within the median distance go inside, the rest outside.
// The tree is advisory; a stale or unbalanced tree only costs search
// quality, never correctness.
package tree
