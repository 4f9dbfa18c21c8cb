// Package fat implements the file allocation table: a flat array of 16-bit slots
// that maps every block to FREE, EOF or the next block of its chain.
//
// The table is persisted verbatim (little-endian int16) in block 0 of the device.
package fat

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// BlockID identifies a block on the device.
type BlockID uint16

const (
	// BlockSize is the size of the block that holds the table image.
	BlockSize = 4096
	// Slots is the number of addressable blocks.
	Slots = BlockSize / 2

	// Free marks an unused block.
	Free int16 = 0
	// EOF marks the last block of a chain.
	EOF int16 = -1

	// TableBlock holds the persisted table.
	TableBlock BlockID = 0
	// RootBlock holds the root directory.
	RootBlock BlockID = 1
	// FirstDataBlock is where allocation scans start.
	FirstDataBlock BlockID = 2
)

var (
	// ErrNoSpace is returned when no free block is left.
	ErrNoSpace = errors.New("fat: no free block")
	// ErrReserved is returned when a reserved block would be modified.
	ErrReserved = errors.New("fat: reserved block")
	// ErrCorrupt is returned when a chain leaves the table, hits a free slot or loops.
	ErrCorrupt = errors.New("fat: corrupt chain")
	// ErrInvalidImage is returned by Decode when reserved slots are not EOF.
	ErrInvalidImage = errors.New("fat: invalid table image")
)

// Table is the in-memory allocation table.
//
// limit bounds allocation to the blocks that actually exist on the device.
type Table struct {
	slots [Slots]int16
	limit int
}

// New returns a freshly formatted table for a device with numBlocks blocks.
func New(numBlocks int) *Table {
	t := &Table{limit: clampLimit(numBlocks)}
	t.Reset()
	return t
}

func clampLimit(numBlocks int) int {
	if numBlocks > Slots {
		return Slots
	}
	if numBlocks < int(FirstDataBlock) {
		return int(FirstDataBlock)
	}
	return numBlocks
}

// Reset marks the reserved blocks EOF and every other block FREE.
func (t *Table) Reset() {
	for i := range t.slots {
		t.slots[i] = Free
	}
	t.slots[TableBlock] = EOF
	t.slots[RootBlock] = EOF
}

// Limit returns the number of blocks the table may allocate from.
func (t *Table) Limit() int { return t.limit }

// Slot returns the raw slot value of id.
func (t *Table) Slot(id BlockID) int16 {
	if int(id) >= Slots {
		return Free
	}
	return t.slots[id]
}

// IsFree reports whether id is unallocated.
func (t *Table) IsFree(id BlockID) bool {
	return int(id) < t.limit && t.slots[id] == Free
}

// Alloc marks the lowest free block EOF and returns it.
func (t *Table) Alloc() (BlockID, error) {
	for i := int(FirstDataBlock); i < t.limit; i++ {
		if t.slots[i] == Free {
			t.slots[i] = EOF
			return BlockID(i), nil
		}
	}
	return 0, ErrNoSpace
}

// AllocChain allocates n blocks, links them in ascending order and terminates the
// chain with EOF. Either all n blocks are allocated or the table is unchanged.
func (t *Table) AllocChain(n int) ([]BlockID, error) {
	if n <= 0 {
		return nil, nil
	}

	ids := make([]BlockID, 0, n)
	for i := int(FirstDataBlock); i < t.limit && len(ids) < n; i++ {
		if t.slots[i] == Free {
			ids = append(ids, BlockID(i))
		}
	}
	if len(ids) < n {
		return nil, ErrNoSpace
	}

	for i, id := range ids {
		if i+1 < len(ids) {
			t.slots[id] = int16(ids[i+1])
		} else {
			t.slots[id] = EOF
		}
	}
	return ids, nil
}

// Link sets the successor of a to b.
func (t *Table) Link(a, b BlockID) error {
	if err := t.checkWritable(a); err != nil {
		return err
	}
	if int(b) >= t.limit {
		return fmt.Errorf("linking block %d to %d: %w", a, b, ErrCorrupt)
	}
	t.slots[a] = int16(b)
	return nil
}

// SetEOF terminates a chain at a.
func (t *Table) SetEOF(a BlockID) error {
	if err := t.checkWritable(a); err != nil {
		return err
	}
	t.slots[a] = EOF
	return nil
}

func (t *Table) checkWritable(id BlockID) error {
	if id < FirstDataBlock {
		return fmt.Errorf("block %d: %w", id, ErrReserved)
	}
	if int(id) >= t.limit {
		return fmt.Errorf("block %d out of range: %w", id, ErrCorrupt)
	}
	return nil
}

// Next returns the successor of id. ok is false when id ends its chain.
func (t *Table) Next(id BlockID) (next BlockID, ok bool, err error) {
	if int(id) >= t.limit {
		return 0, false, fmt.Errorf("block %d out of range: %w", id, ErrCorrupt)
	}
	switch v := t.slots[id]; {
	case v == EOF:
		return 0, false, nil
	case v == Free:
		return 0, false, fmt.Errorf("block %d is free: %w", id, ErrCorrupt)
	case v < 0 || int(v) >= t.limit:
		return 0, false, fmt.Errorf("block %d points to %d: %w", id, v, ErrCorrupt)
	default:
		return BlockID(v), true, nil
	}
}

// Chain returns the blocks of the chain starting at head, in order.
func (t *Table) Chain(head BlockID) ([]BlockID, error) {
	var (
		ids  []BlockID
		seen = make(map[BlockID]struct{})
		cur  = head
	)
	for {
		if _, dup := seen[cur]; dup {
			return nil, fmt.Errorf("chain from %d revisits block %d: %w", head, cur, ErrCorrupt)
		}
		seen[cur] = struct{}{}
		ids = append(ids, cur)

		next, ok, err := t.Next(cur)
		if err != nil {
			return nil, err
		}
		if !ok {
			return ids, nil
		}
		cur = next
	}
}

// FreeChain marks every block of the chain starting at head FREE and returns the
// number of blocks released. The table is unchanged if the chain is corrupt.
func (t *Table) FreeChain(head BlockID) (int, error) {
	if head < FirstDataBlock {
		return 0, fmt.Errorf("freeing chain at %d: %w", head, ErrReserved)
	}
	ids, err := t.Chain(head)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		t.slots[id] = Free
	}
	return len(ids), nil
}

// FreeCount scans the table for free blocks.
func (t *Table) FreeCount() int {
	n := 0
	for i := int(FirstDataBlock); i < t.limit; i++ {
		if t.slots[i] == Free {
			n++
		}
	}
	return n
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	c := *t
	return &c
}

// Encode writes the table image into b.
func (t *Table) Encode(b *[BlockSize]byte) {
	for i, v := range t.slots {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
}

// Decode loads a table image for a device with numBlocks blocks.
func Decode(b *[BlockSize]byte, numBlocks int) (*Table, error) {
	t := &Table{limit: clampLimit(numBlocks)}
	for i := range t.slots {
		t.slots[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	if t.slots[TableBlock] != EOF || t.slots[RootBlock] != EOF {
		return nil, ErrInvalidImage
	}
	return t, nil
}
