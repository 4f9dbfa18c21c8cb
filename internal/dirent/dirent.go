// Package dirent encodes fixed-width directory entries and the directory blocks
// that hold them.
//
// On-disk entry layout (64 bytes, little-endian):
//
//	[0:56]  name, NUL padded (at most 55 bytes)
//	[56:60] size (content bytes including the terminator; 1 for a live directory)
//	[60:62] first block
//	[62]    kind (0 = file, 1 = directory)
//	[63]    access bits (read 0x4, write 0x2, execute 0x1)
package dirent

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"iter"

	"github.com/hupe1980/fatfs/internal/fat"
)

const (
	// Size is the encoded size of one entry.
	Size = 64
	// NameField is the width of the name field.
	NameField = 56
	// MaxNameLen is the longest storable name.
	MaxNameLen = NameField - 1
	// PerBlock is the number of entries in a directory block.
	PerBlock = fat.BlockSize / Size

	// ParentName names the back-link entry of every non-root directory.
	ParentName = ".."

	dirSentinel = 1
)

// Kind distinguishes files from directories.
type Kind uint8

const (
	KindFile Kind = 0
	KindDir  Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Access is the 3-bit permission mask.
type Access uint8

const (
	Execute Access = 1 << iota
	Write
	Read

	RW  = Read | Write
	RWX = Read | Write | Execute
)

// Has reports whether all bits in want are set.
func (a Access) Has(want Access) bool { return a&want == want }

// String renders the mask as "rwx" with dashes for missing bits.
func (a Access) String() string {
	b := []byte("---")
	if a.Has(Read) {
		b[0] = 'r'
	}
	if a.Has(Write) {
		b[1] = 'w'
	}
	if a.Has(Execute) {
		b[2] = 'x'
	}
	return string(b)
}

var (
	// ErrNameTooLong is returned for names longer than MaxNameLen.
	ErrNameTooLong = errors.New("dirent: name too long")
	// ErrInvalidName is returned for empty, reserved or unprintable names.
	ErrInvalidName = errors.New("dirent: invalid name")
	// ErrSlotOutOfRange is returned for slot indexes outside a block.
	ErrSlotOutOfRange = errors.New("dirent: slot out of range")
	// ErrUnknownKind is returned when decoding an unknown kind byte.
	ErrUnknownKind = errors.New("dirent: unknown kind")
)

// Entry is the decoded form of a directory slot.
//
// InUse replaces the on-disk liveness rule; Size is only meaningful for files.
type Entry struct {
	Name       string
	Size       uint32
	FirstBlock fat.BlockID
	Kind       Kind
	Access     Access
	InUse      bool
}

// IsDir reports whether e is a directory.
func (e Entry) IsDir() bool { return e.Kind == KindDir }

// ValidateName checks that name can be stored in an entry.
func ValidateName(name string) error {
	if len(name) > MaxNameLen {
		return fmt.Errorf("%q: %w", name, ErrNameTooLong)
	}
	if name == "" || name == "." || name == ParentName {
		return fmt.Errorf("%q: %w", name, ErrInvalidName)
	}
	for i := 0; i < len(name); i++ {
		if c := name[i]; c < 0x20 || c == 0x7f || c == '/' {
			return fmt.Errorf("%q: %w", name, ErrInvalidName)
		}
	}
	return nil
}

// Encode writes e into b. Free entries are written with zero size and first block.
func (e Entry) Encode(b *[Size]byte) {
	*b = [Size]byte{}
	copy(b[:MaxNameLen], e.Name)

	var size uint32
	var first fat.BlockID
	if e.InUse {
		first = e.FirstBlock
		size = e.Size
		if e.Kind == KindDir {
			size = dirSentinel
		}
	}
	binary.LittleEndian.PutUint32(b[56:60], size)
	binary.LittleEndian.PutUint16(b[60:62], uint16(first))
	b[62] = byte(e.Kind)
	b[63] = byte(e.Access)
}

// Decode reads an entry from b.
func Decode(b *[Size]byte) (Entry, error) {
	name := b[:NameField]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}

	e := Entry{
		Name:       string(name),
		Size:       binary.LittleEndian.Uint32(b[56:60]),
		FirstBlock: fat.BlockID(binary.LittleEndian.Uint16(b[60:62])),
		Kind:       Kind(b[62]),
		Access:     Access(b[63]) & RWX,
	}

	switch e.Kind {
	case KindFile:
		e.InUse = e.Size > 0
	case KindDir:
		e.InUse = e.Size != 0
		e.Size = 0
	default:
		return Entry{}, fmt.Errorf("kind byte %d: %w", b[62], ErrUnknownKind)
	}
	return e, nil
}

// Block is a directory block: PerBlock entries addressed by slot index.
type Block struct {
	entries [PerBlock]Entry
}

// At returns the entry in slot i.
func (d *Block) At(i int) (Entry, error) {
	if i < 0 || i >= PerBlock {
		return Entry{}, fmt.Errorf("slot %d: %w", i, ErrSlotOutOfRange)
	}
	return d.entries[i], nil
}

// Set stores e in slot i.
func (d *Block) Set(i int, e Entry) error {
	if i < 0 || i >= PerBlock {
		return fmt.Errorf("slot %d: %w", i, ErrSlotOutOfRange)
	}
	d.entries[i] = e
	return nil
}

// Clear frees slot i, keeping the stale name and kind bytes like a deleted entry.
func (d *Block) Clear(i int) error {
	e, err := d.At(i)
	if err != nil {
		return err
	}
	e.InUse = false
	e.Size = 0
	e.FirstBlock = 0
	return d.Set(i, e)
}

// Find returns the slot of the live entry called name.
func (d *Block) Find(name string) (int, bool) {
	for i := range d.entries {
		if d.entries[i].InUse && d.entries[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// FindBlock returns the slot of the live entry, other than "..", whose first
// block is id.
func (d *Block) FindBlock(id fat.BlockID) (int, bool) {
	for i := range d.entries {
		e := &d.entries[i]
		if e.InUse && e.FirstBlock == id && e.Name != ParentName {
			return i, true
		}
	}
	return -1, false
}

// FreeSlot returns the first slot that is not in use.
func (d *Block) FreeSlot() (int, bool) {
	for i := range d.entries {
		if !d.entries[i].InUse {
			return i, true
		}
	}
	return -1, false
}

// Live yields the live entries in slot order.
func (d *Block) Live() iter.Seq2[int, Entry] {
	return func(yield func(int, Entry) bool) {
		for i, e := range d.entries {
			if e.InUse && !yield(i, e) {
				return
			}
		}
	}
}

// LiveCount returns the number of live entries.
func (d *Block) LiveCount() int {
	n := 0
	for _, e := range d.entries {
		if e.InUse {
			n++
		}
	}
	return n
}

// NewDirBlock returns an empty directory block whose slot 0 links to parent.
func NewDirBlock(parent fat.BlockID) *Block {
	d := &Block{}
	d.entries[0] = Entry{
		Name:       ParentName,
		FirstBlock: parent,
		Kind:       KindDir,
		Access:     RWX,
		InUse:      true,
	}
	return d
}

// Encode writes the block image into b.
func (d *Block) Encode(b *[fat.BlockSize]byte) {
	for i := range d.entries {
		d.entries[i].Encode((*[Size]byte)(b[i*Size : (i+1)*Size]))
	}
}

// DecodeBlock reads a directory block image.
func DecodeBlock(b *[fat.BlockSize]byte) (*Block, error) {
	d := &Block{}
	for i := range d.entries {
		e, err := Decode((*[Size]byte)(b[i*Size : (i+1)*Size]))
		if err != nil {
			return nil, fmt.Errorf("slot %d: %w", i, err)
		}
		d.entries[i] = e
	}
	return d, nil
}
