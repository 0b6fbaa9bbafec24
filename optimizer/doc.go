// Package optimizer tunes saved indexes offline.
//
// AdjustSearchCoefficients measures recall and query time for a range of
// EdgeSizeForSearch values and stores the chosen one in the index.
// Execute rewrites the edge lists of an index into a new index, leaving
// the input untouched.
package optimizer
