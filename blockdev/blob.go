package blockdev

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hupe1980/fatfs/blobstore"
	"github.com/hupe1980/fatfs/internal/resource"
)

// BlobDevice keeps a device image as a single blob in a BlobStore.
//
// Blocks are fetched lazily with range reads and kept resident. Writes stay in
// memory until Sync (or Close) uploads the whole image. Blocks past the end of
// the stored image read as zeros.
type BlobDevice struct {
	mu sync.Mutex

	store blobstore.BlobStore
	name  string
	blob  blobstore.Blob
	n     int
	rc    *resource.Controller

	resident map[int][]byte
	dirty    map[int]struct{}
	closed   bool
}

var (
	_ Device = (*BlobDevice)(nil)
	_ Syncer = (*BlobDevice)(nil)
)

// OpenBlob opens the image stored under name.
//
// numBlocks > 0 sizes the device (a missing blob yields a zeroed device).
// numBlocks == 0 takes the size of the existing blob.
func OpenBlob(ctx context.Context, store blobstore.BlobStore, name string, numBlocks int, optFns ...Option) (*BlobDevice, error) {
	opts := applyOptions(optFns)

	blob, err := store.Open(ctx, name)
	if err != nil && !errors.Is(err, blobstore.ErrNotFound) {
		return nil, fmt.Errorf("blockdev: open blob %s: %w", name, err)
	}

	if blob != nil {
		size := blob.Size()
		if size%BlockSize != 0 {
			_ = blob.Close()
			return nil, fmt.Errorf("%w: blob %s is %d bytes", ErrInvalidSize, name, size)
		}
		if numBlocks <= 0 {
			numBlocks = int(size / BlockSize)
		}
	}

	if err := checkNumBlocks(numBlocks); err != nil {
		if blob != nil {
			_ = blob.Close()
		}
		return nil, err
	}

	return &BlobDevice{
		store:    store,
		name:     name,
		blob:     blob,
		n:        numBlocks,
		rc:       opts.rc,
		resident: make(map[int][]byte),
		dirty:    make(map[int]struct{}),
	}, nil
}

func (d *BlobDevice) ReadBlock(ctx context.Context, id int, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkBlock(id, d.n, p); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	if b, ok := d.resident[id]; ok {
		copy(p, b)
		return nil
	}

	if err := d.fetch(ctx, id, p); err != nil {
		return err
	}

	// Clean blocks are kept only while the memory budget allows it.
	if d.rc.TryAcquireMemory(BlockSize) {
		d.resident[id] = append([]byte(nil), p...)
	}
	return nil
}

// fetch reads block id from the stored image into p.
func (d *BlobDevice) fetch(ctx context.Context, id int, p []byte) error {
	clear(p)

	if d.blob == nil {
		return nil
	}

	off := int64(id) * BlockSize
	if off >= d.blob.Size() {
		return nil
	}

	if err := d.rc.AcquireIO(ctx, BlockSize); err != nil {
		return err
	}

	_, err := d.blob.ReadAt(ctx, p, off)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("blockdev: read block %d of %s: %w", id, d.name, err)
	}
	return nil
}

func (d *BlobDevice) WriteBlock(ctx context.Context, id int, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkBlock(id, d.n, p); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}

	if b, ok := d.resident[id]; ok {
		copy(b, p)
		d.dirty[id] = struct{}{}
		return nil
	}

	if err := d.rc.AcquireMemory(BlockSize); err != nil {
		// Over budget: write back, drop clean blocks and retry once.
		if err := d.flush(ctx); err != nil {
			return err
		}
		d.evictClean()
		if err := d.rc.AcquireMemory(BlockSize); err != nil {
			return fmt.Errorf("blockdev: write block %d: %w", id, err)
		}
	}

	d.resident[id] = append([]byte(nil), p...)
	d.dirty[id] = struct{}{}
	return nil
}

func (d *BlobDevice) NumBlocks() int {
	return d.n
}

// Dirty returns the number of blocks written since the last Sync.
func (d *BlobDevice) Dirty() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dirty)
}

// Sync uploads the image if any block changed.
func (d *BlobDevice) Sync(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	return d.flush(ctx)
}

func (d *BlobDevice) flush(ctx context.Context) error {
	if len(d.dirty) == 0 {
		return nil
	}

	img := make([]byte, d.n*BlockSize)
	for id := range d.n {
		p := img[id*BlockSize : (id+1)*BlockSize]
		if b, ok := d.resident[id]; ok {
			copy(p, b)
			continue
		}
		if err := d.fetch(ctx, id, p); err != nil {
			return err
		}
	}

	if err := d.rc.AcquireIO(ctx, len(img)); err != nil {
		return err
	}
	if err := d.store.Put(ctx, d.name, img); err != nil {
		return fmt.Errorf("blockdev: upload %s: %w", d.name, err)
	}

	blob, err := d.store.Open(ctx, d.name)
	if err != nil {
		return fmt.Errorf("blockdev: reopen %s: %w", d.name, err)
	}
	if d.blob != nil {
		_ = d.blob.Close()
	}
	d.blob = blob

	clear(d.dirty)
	return nil
}

func (d *BlobDevice) evictClean() {
	for id := range d.resident {
		if _, ok := d.dirty[id]; ok {
			continue
		}
		delete(d.resident, id)
		d.rc.ReleaseMemory(BlockSize)
	}
}

// Close uploads pending writes and releases resident blocks.
func (d *BlobDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}

	err := d.flush(context.Background())
	d.closed = true

	d.rc.ReleaseMemory(int64(len(d.resident)) * BlockSize)
	d.resident = nil
	d.dirty = nil

	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}
