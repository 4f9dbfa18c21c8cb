package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/fatfs/blobstore"
	"github.com/hupe1980/fatfs/blockdev"
	"github.com/hupe1980/fatfs/internal/conv"
	"github.com/hupe1980/fatfs/internal/hash"
	"golang.org/x/sync/errgroup"
)

// Info describes a snapshot.
type Info struct {
	Compression Compression
	BlockSize   int
	NumBlocks   int
	Chunks      int
	RawBytes    int64
	StoredBytes int64
}

func (h *header) info() Info {
	inf := Info{
		Compression: h.Compression,
		BlockSize:   int(h.BlockSize),
		NumBlocks:   int(h.NumBlocks),
		Chunks:      len(h.Chunks),
		RawBytes:    int64(h.NumBlocks) * int64(h.BlockSize),
		StoredBytes: int64(h.size()),
	}
	for _, c := range h.Chunks {
		inf.StoredBytes += int64(c.StoredLen)
	}
	return inf
}

// Save writes the whole device as a snapshot blob called name.
//
// Blocks are read sequentially; chunks are compressed in parallel.
func Save(ctx context.Context, dev blockdev.Device, store blobstore.BlobStore, name string, optFns ...Option) (Info, error) {
	opts := applyOptions(optFns)

	n := dev.NumBlocks()
	if n > MaxBlocks {
		return Info{}, fmt.Errorf("%w: %d blocks, at most %d", ErrGeometryMismatch, n, MaxBlocks)
	}
	numBlocks, err := conv.IntToUint32(n)
	if err != nil {
		return Info{}, fmt.Errorf("snapshot: %w", err)
	}
	img := make([]byte, n*blockdev.BlockSize)
	for id := range n {
		if err := dev.ReadBlock(ctx, id, img[id*blockdev.BlockSize:(id+1)*blockdev.BlockSize]); err != nil {
			return Info{}, fmt.Errorf("snapshot: read block %d: %w", id, err)
		}
	}

	chunkBytes := opts.chunkBlocks * blockdev.BlockSize
	numChunks := (n + opts.chunkBlocks - 1) / opts.chunkBlocks

	h := &header{
		Compression: opts.compression,
		BlockSize:   blockdev.BlockSize,
		NumBlocks:   numBlocks,
		ChunkBlocks: uint32(opts.chunkBlocks),
		Chunks:      make([]chunkEntry, numChunks),
	}
	payloads := make([][]byte, numChunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)

	for i := range numChunks {
		g.Go(func() error {
			if err := opts.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer opts.rc.ReleaseWorker()

			raw := img[i*chunkBytes : min((i+1)*chunkBytes, len(img))]
			stored, codec, err := compressChunk(raw, opts.compression)
			if err != nil {
				return fmt.Errorf("snapshot: compress chunk %d: %w", i, err)
			}

			payloads[i] = stored
			h.Chunks[i] = chunkEntry{StoredLen: uint32(len(stored)), CRC: hash.CRC32C(raw), Codec: codec}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Info{}, err
	}

	if err := write(ctx, store, name, h.encode(), payloads); err != nil {
		return Info{}, err
	}
	return h.info(), nil
}

func write(ctx context.Context, store blobstore.BlobStore, name string, hdr []byte, payloads [][]byte) error {
	w, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", name, err)
	}

	for _, p := range append([][]byte{hdr}, payloads...) {
		if _, err := w.Write(p); err != nil {
			_ = w.Abort()
			return fmt.Errorf("snapshot: write %s: %w", name, err)
		}
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("snapshot: commit %s: %w", name, err)
	}
	return nil
}

// Stat reads only the header of a snapshot.
func Stat(ctx context.Context, store blobstore.BlobStore, name string) (Info, error) {
	b, err := store.Open(ctx, name)
	if err != nil {
		return Info{}, err
	}
	defer func() { _ = b.Close() }()

	fixed := make([]byte, headerSize)
	if err := readFull(ctx, b, fixed, 0); err != nil {
		return Info{}, err
	}

	_, n, err := decodeFixed(fixed)
	if err != nil {
		return Info{}, err
	}

	buf := make([]byte, headerSize+n*chunkEntrySize)
	if err := readFull(ctx, b, buf, 0); err != nil {
		return Info{}, err
	}

	h, err := decodeHeader(buf)
	if err != nil {
		return Info{}, err
	}
	return h.info(), nil
}

func readFull(ctx context.Context, b blobstore.Blob, p []byte, off int64) error {
	n, err := b.ReadAt(ctx, p, off)
	if n == len(p) {
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: truncated", ErrInvalidFormat)
	}
	return err
}

// Load restores the snapshot called name onto dev, which must have the
// snapshot's block count. Every chunk is verified before the first block is
// written, so a corrupt snapshot leaves dev untouched.
func Load(ctx context.Context, store blobstore.BlobStore, name string, dev blockdev.Device, optFns ...Option) (Info, error) {
	img, h, err := decode(ctx, store, name, optFns)
	if err != nil {
		return Info{}, err
	}

	if int(h.NumBlocks) != dev.NumBlocks() {
		return Info{}, fmt.Errorf("%w: snapshot has %d blocks, device %d", ErrGeometryMismatch, h.NumBlocks, dev.NumBlocks())
	}

	for id := range int(h.NumBlocks) {
		if err := dev.WriteBlock(ctx, id, img[id*blockdev.BlockSize:(id+1)*blockdev.BlockSize]); err != nil {
			return Info{}, fmt.Errorf("snapshot: write block %d: %w", id, err)
		}
	}
	if err := blockdev.Sync(ctx, dev); err != nil {
		return Info{}, err
	}
	return h.info(), nil
}

// Restore decodes the snapshot called name into a new MemoryDevice.
func Restore(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*blockdev.MemoryDevice, error) {
	img, _, err := decode(ctx, store, name, optFns)
	if err != nil {
		return nil, err
	}
	return blockdev.NewMemoryFromImage(img)
}

func decode(ctx context.Context, store blobstore.BlobStore, name string, optFns []Option) ([]byte, *header, error) {
	opts := applyOptions(optFns)

	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: read %s: %w", name, err)
	}

	h, err := decodeHeader(data)
	if err != nil {
		return nil, nil, err
	}

	offsets := make([]int, len(h.Chunks)+1)
	offsets[0] = h.size()
	for i, c := range h.Chunks {
		offsets[i+1] = offsets[i] + int(c.StoredLen)
	}
	if offsets[len(h.Chunks)] != len(data) {
		return nil, nil, fmt.Errorf("%w: payload is %d bytes, table says %d", ErrInvalidFormat, len(data)-h.size(), offsets[len(h.Chunks)]-h.size())
	}

	chunkBytes := int(h.ChunkBlocks) * blockdev.BlockSize
	img := make([]byte, int(h.NumBlocks)*blockdev.BlockSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.concurrency)

	for i, c := range h.Chunks {
		g.Go(func() error {
			if err := opts.rc.AcquireWorker(gctx); err != nil {
				return err
			}
			defer opts.rc.ReleaseWorker()

			dst := img[i*chunkBytes : min((i+1)*chunkBytes, len(img))]
			raw, err := decompressChunk(data[offsets[i]:offsets[i+1]], c.Codec, len(dst))
			if err != nil {
				return fmt.Errorf("%w: chunk %d: %w", ErrInvalidFormat, i, err)
			}
			if got := hash.CRC32C(raw); got != c.CRC {
				return &ChecksumMismatchError{Chunk: i, Want: c.CRC, Got: got}
			}

			copy(dst, raw)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return img, h, nil
}
