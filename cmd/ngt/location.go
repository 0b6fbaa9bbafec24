package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/ngtgo"
	"github.com/hupe1980/ngtgo/blobstore"
	miniostore "github.com/hupe1980/ngtgo/blobstore/minio"
	s3store "github.com/hupe1980/ngtgo/blobstore/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/pflag"
)

// remoteFlags select an object store instead of a local directory. When a
// bucket is set the index argument is used as the key prefix.
type remoteFlags struct {
	s3Bucket string
	s3Region string

	minioEndpoint  string
	minioBucket    string
	minioAccessKey string
	minioSecretKey string
	minioSecure    bool
}

func (r *remoteFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&r.s3Bucket, "s3-bucket", "", "Store the index in this S3 bucket")
	fs.StringVar(&r.s3Region, "s3-region", "", "AWS region override for --s3-bucket")
	fs.StringVar(&r.minioEndpoint, "minio-endpoint", "", "MinIO endpoint (host:port)")
	fs.StringVar(&r.minioBucket, "minio-bucket", "", "Store the index in this MinIO bucket")
	fs.StringVar(&r.minioAccessKey, "minio-access-key", os.Getenv("MINIO_ACCESS_KEY"), "MinIO access key")
	fs.StringVar(&r.minioSecretKey, "minio-secret-key", os.Getenv("MINIO_SECRET_KEY"), "MinIO secret key")
	fs.BoolVar(&r.minioSecure, "minio-secure", true, "Use TLS for MinIO")
}

func (r *remoteFlags) remote() bool {
	return r.s3Bucket != "" || r.minioBucket != ""
}

// store returns the object store for prefix, or nil for a local index.
func (r *remoteFlags) store(ctx context.Context, prefix string) (blobstore.Store, error) {
	switch {
	case r.s3Bucket != "" && r.minioBucket != "":
		return nil, errors.New("--s3-bucket and --minio-bucket are mutually exclusive")
	case r.s3Bucket != "":
		var loadOpts []func(*config.LoadOptions) error
		if r.s3Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(r.s3Region))
		}
		cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return s3store.NewStore(awss3.NewFromConfig(cfg), r.s3Bucket, prefix), nil
	case r.minioBucket != "":
		if r.minioEndpoint == "" {
			return nil, errors.New("--minio-bucket requires --minio-endpoint")
		}
		client, err := minio.New(r.minioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(r.minioAccessKey, r.minioSecretKey, ""),
			Secure: r.minioSecure,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return miniostore.NewStore(client, r.minioBucket, prefix), nil
	default:
		return nil, nil
	}
}

// location is where a command reads and writes one index.
type location struct {
	path  string
	store blobstore.Store
	opts  []ngtgo.Option
}

func (g *globalFlags) locate(ctx context.Context, arg string) (*location, error) {
	opts, err := g.options()
	if err != nil {
		return nil, err
	}
	store, err := g.remote.store(ctx, arg)
	if err != nil {
		return nil, err
	}
	return &location{path: arg, store: store, opts: opts}, nil
}

func (l *location) String() string {
	if l.store != nil {
		return "remote:" + l.path
	}
	return l.path
}

func (l *location) create(ctx context.Context, prop *ngtgo.Property) (*ngtgo.Index, error) {
	if l.store == nil {
		return ngtgo.CreateGraphAndTree(ctx, l.path, prop, l.opts...)
	}

	names, err := l.store.List(ctx, "")
	if err != nil {
		return nil, err
	}
	if len(names) > 0 {
		return nil, fmt.Errorf("%w: %s is not empty", ngtgo.ErrAlreadyExists, l)
	}
	idx, err := ngtgo.CreateGraphAndTreeInMemory(prop, l.opts...)
	if err != nil {
		return nil, err
	}
	if err := idx.SaveTo(ctx, l.store); err != nil {
		_ = idx.Close()
		return nil, err
	}
	return idx, nil
}

func (l *location) open(ctx context.Context) (*ngtgo.Index, error) {
	if l.store == nil {
		return ngtgo.Open(ctx, l.path, l.opts...)
	}
	return ngtgo.OpenFrom(ctx, l.store, l.opts...)
}

func (l *location) save(ctx context.Context, idx *ngtgo.Index) error {
	if l.store == nil {
		return idx.Save(ctx, l.path)
	}
	return idx.SaveTo(ctx, l.store)
}

// update opens the index, applies fn and saves the result.
func (l *location) update(ctx context.Context, fn func(*ngtgo.Index) error) error {
	idx, err := l.open(ctx)
	if err != nil {
		return err
	}
	defer idx.Close()

	if err := fn(idx); err != nil {
		return err
	}
	return l.save(ctx, idx)
}
