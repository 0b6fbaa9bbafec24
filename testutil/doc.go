// Package testutil provides helpers for tests and benchmarks of ngtgo.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	data := rng.UniformVectors(1000, 16) // uniform [0, 1)
//	unit := rng.UnitVectors(1000, 16)    // on the unit hypersphere
//
// # Ground Truth and Recall
//
//	truth := testutil.ExactTopK(query, data, k, l2)
//	recall := testutil.ComputeRecall(truth, approximate)
//
// Vector i of a dataset is expected to carry ObjectID i+1, the ID an
// empty index assigns to its i-th insert.
package testutil
