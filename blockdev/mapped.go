package blockdev

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/fatfs/internal/mmap"
)

// ErrReadOnly is returned by WriteBlock on read-only devices.
var ErrReadOnly = errors.New("blockdev: device is read-only")

// MappedDevice serves blocks straight from a memory-mapped image file.
// It never writes; use it to inspect or check images without locking them.
// Safe for concurrent reads.
type MappedDevice struct {
	m      *mmap.Mapping
	path   string
	n      int
	closed atomic.Bool
}

var _ Device = (*MappedDevice)(nil)

// OpenMapped maps the image at path read-only.
func OpenMapped(path string) (*MappedDevice, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("blockdev: map %s: %w", path, err)
	}

	size := m.Size()
	if size%BlockSize != 0 {
		_ = m.Close()
		return nil, fmt.Errorf("%w: %s is %d bytes", ErrInvalidSize, path, size)
	}
	n := size / BlockSize
	if err := checkNumBlocks(n); err != nil {
		_ = m.Close()
		return nil, err
	}

	// Mounted file systems jump around the FAT chains.
	_ = m.Advise(mmap.AccessRandom)

	return &MappedDevice{m: m, path: path, n: n}, nil
}

func (d *MappedDevice) ReadBlock(ctx context.Context, id int, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.closed.Load() {
		return ErrClosed
	}
	if err := checkBlock(id, d.n, p); err != nil {
		return err
	}

	b, err := d.m.View(id*BlockSize, BlockSize)
	if err != nil {
		return fmt.Errorf("blockdev: read block %d of %s: %w", id, d.path, err)
	}
	copy(p, b)
	return nil
}

func (d *MappedDevice) WriteBlock(_ context.Context, id int, _ []byte) error {
	if d.closed.Load() {
		return ErrClosed
	}
	return fmt.Errorf("%w: write block %d of %s", ErrReadOnly, id, d.path)
}

func (d *MappedDevice) NumBlocks() int {
	return d.n
}

// Close unmaps the image. Double close is a no-op.
func (d *MappedDevice) Close() error {
	if d.closed.Swap(true) {
		return nil
	}
	return d.m.Close()
}
