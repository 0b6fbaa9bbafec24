// Package conv converts between int and the fixed-width integers of the
// persisted format, reporting values that do not fit.
package conv
