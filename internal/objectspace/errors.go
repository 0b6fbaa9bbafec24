package objectspace

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for IDs without a live object.
	ErrNotFound = errors.New("object not found")
	// ErrZeroVector is returned when a zero vector is given to a normalized metric.
	ErrZeroVector = errors.New("zero vector cannot be normalized")
	// ErrNonFinite is returned for NaN or infinite elements of float objects.
	ErrNonFinite = errors.New("non-finite element")
	// ErrAllocation is returned when an object cannot be stored.
	ErrAllocation = errors.New("object allocation failed")
)

// DimensionError reports a vector of the wrong length.
type DimensionError struct {
	Expected int
	Actual   int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}
