// Package minio provides a MinIO implementation of the blobstore.BlobStore
// interface, usable with any S3-compatible object store (MinIO, Ceph RGW,
// Wasabi, ...).
//
// # Usage
//
//	client, err := minio.New("play.min.io", &minio.Options{
//	    Creds: credentials.NewStaticV4(accessKey, secretKey, ""),
//	})
//	store := miniostore.NewStore(client, "ipdb", "v2/")
package minio
