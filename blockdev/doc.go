// Package blockdev provides fixed-size block devices for the file system.
//
// A Device is an array of NumBlocks blocks of BlockSize bytes addressed by id.
// Block 0 holds the allocation table and block 1 the root directory, so every
// device has at least MinBlocks blocks.
//
// # Adapters
//
//   - MemoryDevice: a byte slice, for tests and scratch volumes
//   - FileDevice: a disk image file held under an exclusive flock
//   - CachingDevice: an LRU block cache in front of any device
//   - BlobDevice: an image stored as one blob in a blobstore.BlobStore
//     (local directory, S3, MinIO), fetched lazily and written back on Sync
//   - MappedDevice: a read-only mmap of an image file; writes fail with ErrReadOnly
//
// # Usage
//
//	dev, err := blockdev.OpenFile("disk.img", 2048)
//	if err != nil {
//	    return err
//	}
//	defer dev.Close()
//
//	cached := blockdev.NewCaching(dev, blockdev.WithCacheSize(128))
package blockdev
