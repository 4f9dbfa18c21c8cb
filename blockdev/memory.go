package blockdev

import (
	"context"
	"fmt"
	"sync"
)

// MemoryDevice keeps all blocks in a byte slice. Safe for concurrent use.
type MemoryDevice struct {
	mu     sync.RWMutex
	data   []byte
	n      int
	closed bool
}

var _ Device = (*MemoryDevice)(nil)

// NewMemory creates a zeroed device of numBlocks blocks.
func NewMemory(numBlocks int) (*MemoryDevice, error) {
	if err := checkNumBlocks(numBlocks); err != nil {
		return nil, err
	}
	return &MemoryDevice{data: make([]byte, numBlocks*BlockSize), n: numBlocks}, nil
}

// NewMemoryFromImage creates a device holding a copy of img.
func NewMemoryFromImage(img []byte) (*MemoryDevice, error) {
	if len(img)%BlockSize != 0 {
		return nil, fmt.Errorf("%w: image of %d bytes", ErrInvalidSize, len(img))
	}
	n := len(img) / BlockSize
	if err := checkNumBlocks(n); err != nil {
		return nil, err
	}
	return &MemoryDevice{data: append([]byte(nil), img...), n: n}, nil
}

func (d *MemoryDevice) ReadBlock(ctx context.Context, id int, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkBlock(id, d.n, p); err != nil {
		return err
	}

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return ErrClosed
	}
	copy(p, d.data[id*BlockSize:])
	return nil
}

func (d *MemoryDevice) WriteBlock(ctx context.Context, id int, p []byte) error {
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
	copy(d.data[id*BlockSize:(id+1)*BlockSize], p)
	return nil
}

func (d *MemoryDevice) NumBlocks() int {
	return d.n
}

// Image returns a copy of the whole device.
func (d *MemoryDevice) Image() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]byte(nil), d.data...)
}

func (d *MemoryDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
