// Package blobstore abstracts where a persisted index lives.
//
// An index is a handful of named blobs (property file and data sections).
// Store implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - LocalStore: a directory on the local filesystem with atomic writes
//   - MemoryStore: process memory, for tests and ephemeral indexes
//   - s3.Store: Amazon S3 (aws-sdk-go-v2) with multipart uploads
//   - minio.Store: MinIO and other S3-compatible object stores
//
// # Custom Implementations
//
//	type Store interface {
//	    Get(ctx, name) ([]byte, error)
//	    Put(ctx, name, data) error // atomic replace
//	    Delete(ctx, name) error    // missing blobs are not an error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Stores that can guard against concurrent writers additionally implement
// Locker.
package blobstore
