// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket", s3.WithPrefix("ipdb/"))
//	if err != nil { ... }
//
//	err = ipxdb.PublishBlob(ctx, store, "region-2024.xdb", "/tmp/region.xdb")
//
// # Features
//
//   - Range reads for partial fetches of published databases
//   - Multipart uploads for large blobs via the s3 transfer manager
//   - Automatic pagination for listing
//   - Configurable key prefix for multi-tenant isolation
//   - Optional DynamoDB-backed CURRENT pointer for atomic publish commits
//     (see [DDBCommitStore])
package s3
