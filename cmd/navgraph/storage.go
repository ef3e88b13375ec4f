package main

import (
	"context"
	"fmt"

	"github.com/navgraph/navgraph/blobstore"
	"github.com/navgraph/navgraph/blobstore/minio"
	"github.com/navgraph/navgraph/blobstore/s3"
)

// openStorage connects the configured blob store backend.
func openStorage(ctx context.Context, cfg StorageConfig) (blobstore.BlobStore, error) {
	switch cfg.Backend {
	case "", "local":
		return blobstore.NewLocalStore(cfg.Local.Root), nil

	case "minio":
		store, err := minio.New(ctx, minio.Config{
			Endpoint:     cfg.MinIO.Endpoint,
			AccessKey:    cfg.MinIO.AccessKey,
			SecretKey:    cfg.MinIO.SecretKey,
			Bucket:       cfg.MinIO.Bucket,
			Prefix:       cfg.MinIO.Prefix,
			Region:       cfg.MinIO.Region,
			Secure:       cfg.MinIO.Secure,
			CreateBucket: cfg.MinIO.CreateBucket,
		})
		if err != nil {
			return nil, err
		}
		return store, nil

	case "s3":
		if cfg.S3.Bucket == "" {
			return nil, fmt.Errorf("storage.s3.bucket is required")
		}
		optFns := []func(o *s3.Options){s3.WithPrefix(cfg.S3.Prefix)}
		if cfg.S3.Region != "" {
			optFns = append(optFns, s3.WithRegion(cfg.S3.Region))
		}
		if cfg.S3.Endpoint != "" {
			optFns = append(optFns, s3.WithEndpoint(cfg.S3.Endpoint))
		}
		store, err := s3.New(ctx, cfg.S3.Bucket, optFns...)
		if err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
