package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// Store is a flat namespace of named blobs.
type Store interface {
	// Get returns the content of a blob.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put atomically creates or replaces a blob.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob succeeds.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs starting with prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Locker is implemented by stores that can exclude concurrent writers.
type Locker interface {
	// Lock acquires an exclusive writer lock. The returned function
	// releases it.
	Lock(ctx context.Context) (func() error, error)
}
