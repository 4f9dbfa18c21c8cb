package blockdev

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/hupe1980/fatfs/internal/fs"
)

// FileDevice stores blocks in a regular file (a disk image).
// The file is held under an exclusive advisory lock while open.
type FileDevice struct {
	mu     sync.Mutex
	f      fs.File
	path   string
	n      int
	locked bool
	closed bool
}

var (
	_ Device = (*FileDevice)(nil)
	_ Syncer = (*FileDevice)(nil)
)

// OpenFile opens or creates the image at path.
//
// numBlocks > 0 sizes a new image and extends a shorter one. numBlocks == 0 takes
// the size of an existing image.
func OpenFile(path string, numBlocks int, optFns ...Option) (*FileDevice, error) {
	opts := applyOptions(optFns)

	f, err := opts.fsys.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("blockdev: open %s: %w", path, err)
	}

	d := &FileDevice{f: f, path: path}
	if err := d.init(opts, numBlocks); err != nil {
		_ = d.release()
		return nil, err
	}
	return d, nil
}

func (d *FileDevice) init(opts options, numBlocks int) error {
	if !opts.noLock {
		if err := lockFile(d.f); err != nil {
			return err
		}
		d.locked = true
	}

	st, err := d.f.Stat()
	if err != nil {
		return fmt.Errorf("blockdev: stat %s: %w", d.path, err)
	}

	size := st.Size()
	if size%BlockSize != 0 {
		return fmt.Errorf("%w: %s is %d bytes", ErrInvalidSize, d.path, size)
	}

	if numBlocks <= 0 {
		numBlocks = int(size / BlockSize)
	}
	if err := checkNumBlocks(numBlocks); err != nil {
		return err
	}

	if want := int64(numBlocks) * BlockSize; size < want {
		if err := opts.fsys.Truncate(d.path, want); err != nil {
			return fmt.Errorf("blockdev: extend %s: %w", d.path, err)
		}
	}

	d.n = numBlocks
	return nil
}

// Path returns the image path.
func (d *FileDevice) Path() string {
	return d.path
}

func (d *FileDevice) ReadBlock(ctx context.Context, id int, p []byte) error {
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
	if _, err := d.f.ReadAt(p, int64(id)*BlockSize); err != nil {
		return fmt.Errorf("blockdev: read block %d: %w", id, err)
	}
	return nil
}

func (d *FileDevice) WriteBlock(ctx context.Context, id int, p []byte) error {
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
	if _, err := d.f.WriteAt(p, int64(id)*BlockSize); err != nil {
		return fmt.Errorf("blockdev: write block %d: %w", id, err)
	}
	return nil
}

func (d *FileDevice) NumBlocks() int {
	return d.n
}

// Sync commits the image to stable storage.
func (d *FileDevice) Sync(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	return d.f.Sync()
}

// Close syncs, unlocks and closes the image.
func (d *FileDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	err := d.f.Sync()
	return errors.Join(err, d.release())
}

func (d *FileDevice) release() error {
	var err error
	if d.locked {
		err = unlockFile(d.f)
		d.locked = false
	}
	return errors.Join(err, d.f.Close())
}
