package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/fatfs/blockdev"
	"github.com/hupe1980/fatfs/internal/conv"
	"github.com/hupe1980/fatfs/internal/hash"
)

// Layout (little-endian):
//
//	[0:8]   magic "FATFSNAP"
//	[8:10]  version
//	[10]    requested compression
//	[11]    reserved
//	[12:16] block size
//	[16:20] block count
//	[20:24] blocks per chunk
//	[24:28] chunk count
//	[28:32] CRC32C of bytes [0:28] and the chunk table
//	chunk table, 12 bytes per chunk: stored length | CRC32C of raw data | codec | 3 reserved
//	chunk payloads in order
const (
	version        = 1
	headerSize     = 32
	chunkEntrySize = 12
)

// MaxBlocks is the largest device a snapshot may describe (256 MiB).
const MaxBlocks = 1 << 16

var magic = [8]byte{'F', 'A', 'T', 'F', 'S', 'N', 'A', 'P'}

var (
	// ErrInvalidFormat is returned for blobs that are not snapshots or are truncated.
	ErrInvalidFormat = errors.New("snapshot: invalid format")
	// ErrUnsupportedVersion is returned for snapshots written by a newer format.
	ErrUnsupportedVersion = errors.New("snapshot: unsupported version")
	// ErrUnsupportedCompression is returned for unknown codecs.
	ErrUnsupportedCompression = errors.New("snapshot: unsupported compression")
	// ErrGeometryMismatch is returned when the target device differs in size.
	ErrGeometryMismatch = errors.New("snapshot: device geometry mismatch")
)

// ChecksumMismatchError reports a chunk whose contents do not match the stored checksum.
// Chunk is -1 for the header.
type ChecksumMismatchError struct {
	Chunk int
	Want  uint32
	Got   uint32
}

func (e *ChecksumMismatchError) Error() string {
	if e.Chunk < 0 {
		return fmt.Sprintf("snapshot: header checksum mismatch: want %08x, got %08x", e.Want, e.Got)
	}
	return fmt.Sprintf("snapshot: checksum mismatch in chunk %d: want %08x, got %08x", e.Chunk, e.Want, e.Got)
}

// Unwrap lets errors.Is(err, ErrInvalidFormat) match.
func (e *ChecksumMismatchError) Unwrap() error {
	return ErrInvalidFormat
}

type header struct {
	Compression Compression
	BlockSize   uint32
	NumBlocks   uint32
	ChunkBlocks uint32
	Chunks      []chunkEntry
}

type chunkEntry struct {
	StoredLen uint32
	CRC       uint32
	Codec     Compression
}

func (h *header) size() int {
	return headerSize + len(h.Chunks)*chunkEntrySize
}

func (h *header) encode() []byte {
	buf := make([]byte, h.size())

	copy(buf[0:8], magic[:])
	binary.LittleEndian.PutUint16(buf[8:], version)
	buf[10] = byte(h.Compression)
	binary.LittleEndian.PutUint32(buf[12:], h.BlockSize)
	binary.LittleEndian.PutUint32(buf[16:], h.NumBlocks)
	binary.LittleEndian.PutUint32(buf[20:], h.ChunkBlocks)
	binary.LittleEndian.PutUint32(buf[24:], uint32(len(h.Chunks)))

	for i, c := range h.Chunks {
		e := buf[headerSize+i*chunkEntrySize:]
		binary.LittleEndian.PutUint32(e[0:], c.StoredLen)
		binary.LittleEndian.PutUint32(e[4:], c.CRC)
		e[8] = byte(c.Codec)
	}

	binary.LittleEndian.PutUint32(buf[28:], headerCRC(buf))
	return buf
}

func headerCRC(buf []byte) uint32 {
	crc := hash.CRC32C(buf[:28])
	return hash.UpdateCRC32C(crc, buf[headerSize:])
}

// decodeFixed parses the fixed part and returns the chunk count.
func decodeFixed(buf []byte) (*header, int, error) {
	if len(buf) < headerSize || [8]byte(buf[0:8]) != magic {
		return nil, 0, ErrInvalidFormat
	}
	if v := binary.LittleEndian.Uint16(buf[8:]); v != version {
		return nil, 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}

	h := &header{
		Compression: Compression(buf[10]),
		BlockSize:   binary.LittleEndian.Uint32(buf[12:]),
		NumBlocks:   binary.LittleEndian.Uint32(buf[16:]),
		ChunkBlocks: binary.LittleEndian.Uint32(buf[20:]),
	}
	n, err := conv.Uint32ToInt(binary.LittleEndian.Uint32(buf[24:]))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrInvalidFormat, err)
	}

	if h.BlockSize != blockdev.BlockSize {
		return nil, 0, fmt.Errorf("%w: block size %d", ErrGeometryMismatch, h.BlockSize)
	}
	if h.NumBlocks < blockdev.MinBlocks || h.NumBlocks > MaxBlocks {
		return nil, 0, fmt.Errorf("%w: %d blocks", ErrInvalidFormat, h.NumBlocks)
	}
	if h.ChunkBlocks == 0 {
		return nil, 0, fmt.Errorf("%w: zero chunk size", ErrInvalidFormat)
	}
	want := (uint64(h.NumBlocks) + uint64(h.ChunkBlocks) - 1) / uint64(h.ChunkBlocks)
	if uint64(n) != want {
		return nil, 0, fmt.Errorf("%w: %d chunks for %d blocks", ErrInvalidFormat, n, h.NumBlocks)
	}
	return h, n, nil
}

// decodeHeader parses the fixed part and chunk table from the start of buf.
func decodeHeader(buf []byte) (*header, error) {
	h, n, err := decodeFixed(buf)
	if err != nil {
		return nil, err
	}

	end := headerSize + n*chunkEntrySize
	if len(buf) < end {
		return nil, fmt.Errorf("%w: truncated chunk table", ErrInvalidFormat)
	}

	want := binary.LittleEndian.Uint32(buf[28:])
	if got := headerCRC(buf[:end]); got != want {
		return nil, &ChecksumMismatchError{Chunk: -1, Want: want, Got: got}
	}

	h.Chunks = make([]chunkEntry, n)
	for i := range h.Chunks {
		e := buf[headerSize+i*chunkEntrySize:]
		h.Chunks[i] = chunkEntry{
			StoredLen: binary.LittleEndian.Uint32(e[0:]),
			CRC:       binary.LittleEndian.Uint32(e[4:]),
			Codec:     Compression(e[8]),
		}
	}
	return h, nil
}
