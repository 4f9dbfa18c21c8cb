// Package snapshot saves and restores whole block devices as single blobs.
//
// A snapshot is a checksummed header followed by the device image split into
// chunks of WithChunkBlocks blocks. Each chunk is compressed independently
// (zstd, lz4 or none) and carries a CRC32C of its raw bytes, so chunks are
// compressed and verified in parallel:
//
//	info, err := snapshot.Save(ctx, dev, store, "vol-2026-10-19.snap",
//	    snapshot.WithCompression(snapshot.CompressionLZ4),
//	)
//
//	_, err = snapshot.Load(ctx, store, "vol-2026-10-19.snap", dev)
//
// Load verifies every chunk before writing to the device.
package snapshot
