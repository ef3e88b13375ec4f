// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("indexes/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	err = idx.Save(ctx, store, "sift.ngx")
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads with CRC32C checksums for large indexes
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
