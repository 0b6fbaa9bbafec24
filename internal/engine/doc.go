// Package engine ties the object space, the neighborhood graph and the
// seed tree together into a single index state.
//
// An Engine is not safe for concurrent mutation. Search, LinearSearch and
// Object may run concurrently with each other as long as no mutation is in
// flight; the facade enforces this with a read-write lock.
package engine
