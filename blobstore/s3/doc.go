// Package s3 provides an Amazon S3 implementation of blobstore.BlobStore.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("volumes/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	dev, err := blockdev.OpenBlob(ctx, store, "disk.img", 2048)
//	fsys, err := fatfs.Open(ctx, dev, fatfs.WithAutoFormat())
//
// # Features
//
//   - Range reads, so a blob device fetches only the blocks it touches
//   - Multipart uploads with CRC32C integrity checks
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
