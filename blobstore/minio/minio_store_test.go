package minio

import (
	"context"
	"testing"

	"github.com/hupe1980/ngtgo/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyLayout(t *testing.T) {
	s := NewStore(nil, "bucket", "/indexes/sift/")
	assert.Equal(t, "indexes/sift/graph.bin", s.key("graph.bin"))

	s = NewStore(nil, "bucket", "")
	assert.Equal(t, "graph.bin", s.key("graph.bin"))
}

// TestMinioStore_Integration requires a running MinIO instance.
// Skip if not available.
func TestMinioStore_Integration(t *testing.T) {
	endpoint := "localhost:9000"
	accessKey := "minioadmin"
	secretKey := "minioadmin"
	bucket := "test-ngtgo"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()

	// Check if MinIO is reachable
	if _, err = client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	store := NewStore(client, bucket, "test-prefix/")

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.bin", data))

	got, err := store.Get(ctx, "test.bin")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.bin")

	require.NoError(t, store.Delete(ctx, "test.bin"))
	require.NoError(t, store.Delete(ctx, "test.bin"))

	_, err = store.Get(ctx, "test.bin")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
