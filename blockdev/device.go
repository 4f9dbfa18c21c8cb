package blockdev

import (
	"context"
	"errors"
	"fmt"
)

// BlockSize is the fixed size of every block in bytes.
const BlockSize = 4096

var (
	// ErrOutOfRange is returned for a block id outside [0, NumBlocks).
	ErrOutOfRange = errors.New("blockdev: block out of range")
	// ErrBufferSize is returned when the buffer is not exactly BlockSize bytes.
	ErrBufferSize = errors.New("blockdev: buffer must be exactly one block")
	// ErrClosed is returned by operations on a closed device.
	ErrClosed = errors.New("blockdev: device closed")
	// ErrLocked is returned when another process holds the device file.
	ErrLocked = errors.New("blockdev: device is locked by another process")
	// ErrInvalidSize is returned for devices that cannot hold the two metadata blocks
	// or whose backing size is not a multiple of BlockSize.
	ErrInvalidSize = errors.New("blockdev: invalid device size")
)

// MinBlocks is the smallest usable device: the FAT block and the root directory.
const MinBlocks = 2

// Device is a fixed-size array of blocks.
//
// ReadBlock and WriteBlock transfer exactly BlockSize bytes. Devices are not
// required to be safe for concurrent use unless documented otherwise.
type Device interface {
	ReadBlock(ctx context.Context, id int, p []byte) error
	WriteBlock(ctx context.Context, id int, p []byte) error
	NumBlocks() int
	Close() error
}

// Syncer is implemented by devices that buffer writes.
type Syncer interface {
	Sync(ctx context.Context) error
}

// Sync flushes dev if it implements Syncer.
func Sync(ctx context.Context, dev Device) error {
	if s, ok := dev.(Syncer); ok {
		return s.Sync(ctx)
	}
	return nil
}

func checkBlock(id, numBlocks int, p []byte) error {
	if id < 0 || id >= numBlocks {
		return fmt.Errorf("%w: %d (device has %d blocks)", ErrOutOfRange, id, numBlocks)
	}
	if len(p) != BlockSize {
		return fmt.Errorf("%w: got %d bytes", ErrBufferSize, len(p))
	}
	return nil
}

func checkNumBlocks(n int) error {
	if n < MinBlocks {
		return fmt.Errorf("%w: %d blocks, need at least %d", ErrInvalidSize, n, MinBlocks)
	}
	return nil
}
