// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	cfg, err := config.LoadDefaultConfig(ctx)
//	if err != nil {
//	    return err
//	}
//	store := s3.NewStore(awss3.NewFromConfig(cfg), "my-bucket", "indexes/sift")
//	idx, err := ngtgo.OpenFrom(ctx, store)
//
// # Features
//
//   - CRC32C-checked single PUTs for small blobs
//   - Multipart uploads through the s3 manager for large blobs
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
