// Package hash provides the CRC32-Castagnoli checksums used by snapshots and
// S3 uploads.
//
// Go's crc32 package uses SSE4.2 or the ARM CRC extension when available.
//
// For one-shot checksums:
//
//	sum := hash.CRC32C(data)
//
// For streaming checksums:
//
//	h := hash.NewCRC32C()
//	h.Write(header)
//	h.Write(payload)
//	sum := h.Sum32()
package hash
