// Package blobstore abstracts storage of immutable xdb blobs.
//
// The Maker itself always builds into a local, seekable file, but the source
// segment dump may live in remote storage and a finished database is usually
// published somewhere other than the build host. BlobStore covers both ends:
//
//   - [LocalStore]: files on the local filesystem, mmap-backed reads
//   - [MemoryStore]: in-memory store for tests
//   - s3.Store: Amazon S3 (with an optional DynamoDB-backed commit pointer)
//   - minio.Store: MinIO and other S3-compatible object stores
//
// Finished databases are immutable, so stores only ever see whole-blob
// writes; there is no partial update path.
package blobstore
