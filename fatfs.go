package fatfs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/fatfs/blockdev"
	"github.com/hupe1980/fatfs/internal/dirent"
	"github.com/hupe1980/fatfs/internal/fat"
)

// BlockSize is the size of a device block.
const BlockSize = fat.BlockSize

// Access is the permission mask of an entry.
type Access = dirent.Access

// Access bits.
const (
	AccessExecute = dirent.Execute
	AccessWrite   = dirent.Write
	AccessRead    = dirent.Read
)

type rawBlock = [BlockSize]byte

// FS is a FAT-style file system on a block device.
//
// An FS models a single session: the current directory is part of its state.
// Operations are serialised by an internal mutex.
type FS struct {
	mu     sync.Mutex
	dev    blockdev.Device
	fat    *fat.Table
	cwd    fat.BlockID
	opts   options
	closed bool
}

// Open mounts the file system on dev. The FS takes ownership of dev and closes
// it on Close.
//
// Open fails with ErrNotFormatted when block 0 does not hold a valid allocation
// table, unless WithAutoFormat is set.
func Open(ctx context.Context, dev blockdev.Device, optFns ...Option) (*FS, error) {
	opts := applyOptions(optFns)

	if n := dev.NumBlocks(); n < blockdev.MinBlocks {
		return nil, wrapError("open", "", fmt.Errorf("%w: device has %d blocks", ErrInvalidArgument, n))
	}

	f := &FS{
		dev:  dev,
		cwd:  fat.RootBlock,
		opts: opts,
	}
	f.opts.logger = opts.logger.WithDevice(dev.NumBlocks())

	err := f.mount(ctx)
	if errors.Is(err, ErrNotFormatted) && opts.autoFormat {
		err = f.format(ctx)
		f.opts.logger.LogFormat(ctx, f.fat.FreeCount(), err)
	}
	if err != nil {
		err = wrapError("open", "", err)
		f.opts.logger.LogOperation(ctx, "open", "", err)
		return nil, err
	}
	return f, nil
}

func (f *FS) mount(ctx context.Context) error {
	var b rawBlock
	if err := f.dev.ReadBlock(ctx, int(fat.TableBlock), b[:]); err != nil {
		return err
	}

	t, err := fat.Decode(&b, f.dev.NumBlocks())
	if err != nil {
		f.fat = fat.New(f.dev.NumBlocks())
		return fmt.Errorf("%w: %w", ErrNotFormatted, err)
	}

	f.fat = t
	if _, err := f.readDir(ctx, fat.RootBlock); err != nil {
		if errors.Is(err, dirent.ErrUnknownKind) {
			return fmt.Errorf("%w: root directory: %w", ErrNotFormatted, err)
		}
		return err
	}
	return nil
}

// Format erases the file system: every block but the two metadata blocks is
// freed, the root directory is emptied and the current directory reset to root.
func (f *FS) Format(ctx context.Context) error {
	return f.do(ctx, "format", "", func() error {
		err := f.format(ctx)
		f.opts.logger.LogFormat(ctx, f.fat.FreeCount(), err)
		return err
	})
}

func (f *FS) format(ctx context.Context) error {
	f.fat = fat.New(f.dev.NumBlocks())
	if err := f.writeDir(ctx, fat.RootBlock, &dirent.Block{}); err != nil {
		return err
	}
	if err := f.writeFAT(ctx); err != nil {
		return err
	}
	f.cwd = fat.RootBlock
	return nil
}

// Close flushes and closes the device. Further operations fail with ErrClosed.
func (f *FS) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil
	}
	f.closed = true

	ctx := context.Background()
	err := errors.Join(blockdev.Sync(ctx, f.dev), f.dev.Close())
	return wrapError("close", "", err)
}

// do runs fn under the session lock. The allocation table is restored when fn
// fails, and the outcome is recorded in logs and metrics.
func (f *FS) do(ctx context.Context, op, path string, fn func() error) error {
	start := time.Now()

	f.mu.Lock()
	defer f.mu.Unlock()

	err := ctx.Err()
	if err == nil && f.closed {
		err = ErrClosed
	}

	if err == nil {
		saved := f.fat.Clone()
		before := saved.FreeCount()

		if err = fn(); err != nil {
			f.fat = saved
		} else if after := f.fat.FreeCount(); after != before {
			allocated, freed := max(before-after, 0), max(after-before, 0)
			f.opts.metricsCollector.RecordBlocks(allocated, freed)
			f.opts.logger.LogBlocks(ctx, op, allocated, freed, after)
		}
	}

	err = wrapError(op, path, err)
	f.opts.metricsCollector.RecordOperation(op, time.Since(start), err)
	f.opts.logger.LogOperation(ctx, op, path, err)
	return err
}

func (f *FS) readBlock(ctx context.Context, id fat.BlockID, b *rawBlock) error {
	if err := f.dev.ReadBlock(ctx, int(id), b[:]); err != nil {
		return fmt.Errorf("read block %d: %w", id, err)
	}
	return nil
}

func (f *FS) writeBlock(ctx context.Context, id fat.BlockID, b *rawBlock) error {
	if err := f.dev.WriteBlock(ctx, int(id), b[:]); err != nil {
		return fmt.Errorf("write block %d: %w", id, err)
	}
	return nil
}

func (f *FS) readDir(ctx context.Context, id fat.BlockID) (*dirent.Block, error) {
	var b rawBlock
	if err := f.readBlock(ctx, id, &b); err != nil {
		return nil, err
	}
	d, err := dirent.DecodeBlock(&b)
	if err != nil {
		return nil, fmt.Errorf("directory block %d: %w", id, err)
	}
	return d, nil
}

func (f *FS) writeDir(ctx context.Context, id fat.BlockID, d *dirent.Block) error {
	var b rawBlock
	d.Encode(&b)
	return f.writeBlock(ctx, id, &b)
}

func (f *FS) writeFAT(ctx context.Context) error {
	var b rawBlock
	f.fat.Encode(&b)
	return f.writeBlock(ctx, fat.TableBlock, &b)
}

// FreeBlocks returns the number of unallocated blocks.
func (f *FS) FreeBlocks(ctx context.Context) (int, error) {
	var n int
	err := f.do(ctx, "free", "", func() error {
		n = f.fat.FreeCount()
		return nil
	})
	return n, err
}
