// Package minio stores persisted indexes in a MinIO bucket, or in any other
// server speaking the S3 API (Ceph, Garage, SeaweedFS), through the MinIO
// client.
//
//	store, err := minio.New(ctx, minio.Config{
//	    Endpoint:     "localhost:9000",
//	    AccessKey:    "minioadmin",
//	    SecretKey:    "minioadmin",
//	    Bucket:       "navgraph",
//	    Prefix:       "indexes/",
//	    CreateBucket: true,
//	})
//	err = idx.Save(ctx, store, "sift.ngx")
//
// Uploads are streamed, so an index is never buffered whole in memory.
// A blob becomes visible only when its writer is closed successfully.
package minio
