package ngtgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/ngtgo/distance"
	"github.com/hupe1980/ngtgo/internal/engine"
	"github.com/hupe1980/ngtgo/internal/graph"
	"github.com/hupe1980/ngtgo/internal/objectspace"
	"github.com/hupe1980/ngtgo/internal/resource"
	"github.com/hupe1980/ngtgo/persistence"
)

var (
	// ErrInvalidArgument is returned for out-of-range parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDimensionMismatch is wrapped by every DimensionMismatchError.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrUnsupportedMetricForType is returned when the distance type cannot be
	// computed on the configured object type.
	ErrUnsupportedMetricForType = distance.ErrUnsupportedMetricForType

	// ErrNotFound is returned for unknown IDs and missing indexes.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when an index target is occupied.
	ErrAlreadyExists = errors.New("already exists")

	// ErrCorruptData is returned when persisted state cannot be read.
	ErrCorruptData = errors.New("corrupt index data")

	// ErrAllocationFailure is returned when an object cannot be stored.
	ErrAllocationFailure = errors.New("allocation failure")

	// ErrClosed is returned by every method of a closed Index.
	ErrClosed = errors.New("index closed")
)

// DimensionMismatchError indicates a vector/query dimensionality mismatch.
//
// The original underlying error can be accessed via errors.Unwrap.
type DimensionMismatchError struct {
	Expected int
	Actual   int
	cause    error
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *DimensionMismatchError) Unwrap() []error {
	if e.cause == nil {
		return []error{ErrDimensionMismatch}
	}
	return []error{ErrDimensionMismatch, e.cause}
}

// BatchItemError reports the failure of one item of a batch operation.
type BatchItemError struct {
	Index int
	Err   error
}

func (e *BatchItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

func (e *BatchItemError) Unwrap() error { return e.Err }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var dm *objectspace.DimensionError
	if errors.As(err, &dm) {
		return &DimensionMismatchError{Expected: dm.Expected, Actual: dm.Actual, cause: err}
	}

	switch {
	case errors.Is(err, objectspace.ErrNotFound),
		errors.Is(err, graph.ErrNodeNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	case errors.Is(err, objectspace.ErrAllocation),
		errors.Is(err, resource.ErrMemoryLimitExceeded):
		return fmt.Errorf("%w: %w", ErrAllocationFailure, err)
	case errors.Is(err, persistence.ErrCorrupt):
		return fmt.Errorf("%w: %w", ErrCorruptData, err)
	case errors.Is(err, distance.ErrUnsupportedMetricForType):
		return err
	case errors.Is(err, objectspace.ErrZeroVector),
		errors.Is(err, objectspace.ErrNonFinite),
		errors.Is(err, engine.ErrInvalidConfig),
		errors.Is(err, graph.ErrNodeExists):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return err
}

// joinBatchErrors counts the failed items and joins their errors. The
// error is nil when every item succeeded.
func joinBatchErrors(errs []error) (int, error) {
	var items []error
	for i, err := range errs {
		if err != nil {
			items = append(items, &BatchItemError{Index: i, Err: translateError(err)})
		}
	}
	return len(items), errors.Join(items...)
}
