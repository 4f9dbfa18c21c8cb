package fatfs

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/fatfs/internal/conv"
	"github.com/hupe1980/fatfs/internal/dirent"
	"github.com/hupe1980/fatfs/internal/fat"
)

// blocksFor returns the number of blocks a file of size bytes occupies.
func blocksFor(size uint32) int {
	return int((uint64(size) + BlockSize - 1) / BlockSize)
}

// Create stores content as a new file at path. The stored size counts a
// terminating NUL, so an empty file still occupies one block.
func (f *FS) Create(ctx context.Context, path, content string) error {
	return f.do(ctx, "create", path, func() error {
		if strings.IndexByte(content, 0) >= 0 {
			return fmt.Errorf("content contains NUL: %w", ErrInvalidArgument)
		}

		dir, d, name, err := f.parent(ctx, path)
		if err != nil {
			return err
		}
		if err := dirent.ValidateName(name); err != nil {
			return err
		}
		if _, ok := d.Find(name); ok {
			return fmt.Errorf("%q: %w", name, ErrExists)
		}
		slot, ok := d.FreeSlot()
		if !ok {
			return fmt.Errorf("directory full: %w", ErrNoSpace)
		}

		size, err := conv.IntToUint32(len(content) + 1)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNoSpace, err)
		}
		ids, err := f.fat.AllocChain(blocksFor(size))
		if err != nil {
			return err
		}

		data := make([]byte, size)
		copy(data, content)
		if err := f.writeChain(ctx, ids, data); err != nil {
			return err
		}
		if err := f.writeFAT(ctx); err != nil {
			return err
		}

		access := dirent.RW
		if f.opts.executable {
			access = dirent.RWX
		}
		if err := d.Set(slot, dirent.Entry{
			Name:       name,
			Size:       size,
			FirstBlock: ids[0],
			Kind:       dirent.KindFile,
			Access:     access,
			InUse:      true,
		}); err != nil {
			return err
		}
		return f.writeDir(ctx, dir, d)
	})
}

// Cat returns the content of the file at path.
func (f *FS) Cat(ctx context.Context, path string) (string, error) {
	var content string
	err := f.do(ctx, "cat", path, func() error {
		loc, err := f.lookup(ctx, path)
		if err != nil {
			return err
		}
		if err := checkFile(loc.entry, dirent.Read); err != nil {
			return err
		}

		data, err := f.readFile(ctx, loc.entry)
		if err != nil {
			return err
		}
		content = string(data)
		return nil
	})
	return content, err
}

// Append adds the content of from to the end of to, separated by a newline.
// from is left untouched; appending a file to itself doubles it.
func (f *FS) Append(ctx context.Context, from, to string) error {
	return f.do(ctx, "append", from+" "+to, func() error {
		src, err := f.lookup(ctx, from)
		if err != nil {
			return err
		}
		if err := checkFile(src.entry, dirent.Read); err != nil {
			return err
		}
		dst, err := f.lookup(ctx, to)
		if err != nil {
			return err
		}
		if err := checkFile(dst.entry, dirent.Read|dirent.Write); err != nil {
			return err
		}

		payload, err := f.readFile(ctx, src.entry)
		if err != nil {
			return err
		}

		old, err := f.fat.Chain(dst.entry.FirstBlock)
		if err != nil {
			return err
		}
		if len(old) != blocksFor(dst.entry.Size) {
			return chainMismatch(dst.entry, len(old))
		}

		newSize := uint64(dst.entry.Size) + uint64(src.entry.Size)
		if newSize > uint64(f.fat.Limit())*BlockSize {
			return fmt.Errorf("appending %d bytes: %w", src.entry.Size, ErrNoSpace)
		}
		size, err := conv.Uint64ToUint32(newSize)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrNoSpace, err)
		}
		grown, err := f.fat.AllocChain(blocksFor(size) - len(old))
		if err != nil {
			return err
		}

		if err := f.appendBytes(ctx, old[len(old)-1], grown, dst.entry.Size, payload); err != nil {
			return err
		}
		if len(grown) > 0 {
			if err := f.fat.Link(old[len(old)-1], grown[0]); err != nil {
				return err
			}
			if err := f.writeFAT(ctx); err != nil {
				return err
			}
		}

		e := dst.entry
		e.Size = size
		if err := dst.block.Set(dst.slot, e); err != nil {
			return err
		}
		return f.writeDir(ctx, dst.dir, dst.block)
	})
}

// appendBytes writes "\n" + payload + NUL over the terminator of a file of
// oldSize bytes whose last block is tail, spilling into grown.
//
// The work buffer spans two blocks: the current block and the one being filled
// after it. Full blocks are flushed as the payload advances.
func (f *FS) appendBytes(ctx context.Context, tail fat.BlockID, grown []fat.BlockID, oldSize uint32, payload []byte) error {
	var buf [2 * BlockSize]byte
	if err := f.readBlock(ctx, tail, (*rawBlock)(buf[:BlockSize])); err != nil {
		return err
	}

	data := make([]byte, 0, len(payload)+2)
	data = append(data, '\n')
	data = append(data, payload...)
	data = append(data, 0)

	blocks := append([]fat.BlockID{tail}, grown...)
	pos := int((oldSize - 1) % BlockSize)
	cur := 0
	for {
		n := copy(buf[pos:], data)
		data = data[n:]
		pos += n
		if pos < BlockSize {
			return f.writeBlock(ctx, blocks[cur], (*rawBlock)(buf[:BlockSize]))
		}

		if err := f.writeBlock(ctx, blocks[cur], (*rawBlock)(buf[:BlockSize])); err != nil {
			return err
		}
		cur++
		copy(buf[:BlockSize], buf[BlockSize:])
		clear(buf[BlockSize:])
		pos -= BlockSize

		if len(data) == 0 {
			if pos == 0 {
				return nil
			}
			return f.writeBlock(ctx, blocks[cur], (*rawBlock)(buf[:BlockSize]))
		}
	}
}

// readFile returns the content of a file entry without its terminator.
func (f *FS) readFile(ctx context.Context, e dirent.Entry) ([]byte, error) {
	ids, err := f.fat.Chain(e.FirstBlock)
	if err != nil {
		return nil, err
	}
	if len(ids) != blocksFor(e.Size) {
		return nil, chainMismatch(e, len(ids))
	}

	data := make([]byte, len(ids)*BlockSize)
	for i, id := range ids {
		if err := f.readBlock(ctx, id, (*rawBlock)(data[i*BlockSize:])); err != nil {
			return nil, err
		}
	}
	return data[:e.Size-1], nil
}

// writeChain writes data across ids, zero padding the last block.
func (f *FS) writeChain(ctx context.Context, ids []fat.BlockID, data []byte) error {
	var b rawBlock
	for i, id := range ids {
		b = rawBlock{}
		copy(b[:], data[min(i*BlockSize, len(data)):])
		if err := f.writeBlock(ctx, id, &b); err != nil {
			return err
		}
	}
	return nil
}

// copyPayload duplicates the chain of src into freshly allocated blocks and
// returns the head of the copy. The FAT is updated in memory only.
func (f *FS) copyPayload(ctx context.Context, src dirent.Entry) (fat.BlockID, error) {
	ids, err := f.fat.Chain(src.FirstBlock)
	if err != nil {
		return 0, err
	}
	if len(ids) != blocksFor(src.Size) {
		return 0, chainMismatch(src, len(ids))
	}

	dst, err := f.fat.AllocChain(len(ids))
	if err != nil {
		return 0, err
	}

	var b rawBlock
	for i := range ids {
		if err := f.readBlock(ctx, ids[i], &b); err != nil {
			return 0, err
		}
		if err := f.writeBlock(ctx, dst[i], &b); err != nil {
			return 0, err
		}
	}
	return dst[0], nil
}

// checkFile verifies that e is a file granting want.
func checkFile(e dirent.Entry, want dirent.Access) error {
	if e.IsDir() {
		return fmt.Errorf("%q: %w", e.Name, ErrIsDir)
	}
	if !e.Access.Has(want) {
		return fmt.Errorf("%q needs %s: %w", e.Name, want, ErrPermission)
	}
	return nil
}

func chainMismatch(e dirent.Entry, got int) error {
	return fmt.Errorf("%q: size %d needs %d blocks, chain has %d: %w",
		e.Name, e.Size, blocksFor(e.Size), got, ErrCorrupt)
}
