package fatfs

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/fatfs/internal/dirent"
	"github.com/hupe1980/fatfs/internal/fat"
	"github.com/hupe1980/fatfs/internal/fspath"
)

// Ls lists the live entries of the current directory in slot order, including
// the ".." link of a non-root directory.
func (f *FS) Ls(ctx context.Context) ([]FileInfo, error) {
	var infos []FileInfo
	err := f.do(ctx, "ls", "", func() error {
		d, err := f.readDir(ctx, f.cwd)
		if err != nil {
			return err
		}
		infos = make([]FileInfo, 0, d.LiveCount())
		for _, e := range d.Live() {
			infos = append(infos, newFileInfo(e))
		}
		return nil
	})
	return infos, err
}

// Stat returns the entry named by path. "/" describes the root directory.
func (f *FS) Stat(ctx context.Context, path string) (FileInfo, error) {
	var fi FileInfo
	err := f.do(ctx, "stat", path, func() error {
		if fspath.IsAbs(path) && strings.Trim(path, fspath.Separator) == "" {
			fi = FileInfo{
				Name:       fspath.Separator,
				IsDir:      true,
				Access:     dirent.RWX,
				FirstBlock: int(fat.RootBlock),
			}
			return nil
		}

		loc, err := f.lookup(ctx, path)
		if err != nil {
			return err
		}
		fi = newFileInfo(loc.entry)
		return nil
	})
	return fi, err
}

// Mkdir creates an empty directory at path.
func (f *FS) Mkdir(ctx context.Context, path string) error {
	return f.do(ctx, "mkdir", path, func() error {
		parent, d, name, err := f.parent(ctx, path)
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

		id, err := f.fat.Alloc()
		if err != nil {
			return err
		}

		if err := f.writeDir(ctx, id, dirent.NewDirBlock(parent)); err != nil {
			return err
		}
		if err := f.writeFAT(ctx); err != nil {
			return err
		}
		if err := d.Set(slot, dirent.Entry{
			Name:       name,
			FirstBlock: id,
			Kind:       dirent.KindDir,
			Access:     dirent.RWX,
			InUse:      true,
		}); err != nil {
			return err
		}
		return f.writeDir(ctx, parent, d)
	})
}

// Rm removes a file or an empty directory.
func (f *FS) Rm(ctx context.Context, path string) error {
	return f.do(ctx, "rm", path, func() error {
		if err := checkSourceLeaf(path); err != nil {
			return err
		}
		loc, err := f.lookup(ctx, path)
		if err != nil {
			return err
		}

		if loc.entry.IsDir() {
			if loc.entry.FirstBlock == f.cwd {
				return fmt.Errorf("%q is the current directory: %w", loc.entry.Name, ErrInvalidArgument)
			}
			sub, err := f.readDir(ctx, loc.entry.FirstBlock)
			if err != nil {
				return err
			}
			for _, e := range sub.Live() {
				if e.Name != dirent.ParentName {
					return fmt.Errorf("%q: %w", loc.entry.Name, ErrDirNotEmpty)
				}
			}
		}

		if _, err := f.fat.FreeChain(loc.entry.FirstBlock); err != nil {
			return err
		}
		if err := loc.block.Clear(loc.slot); err != nil {
			return err
		}
		if err := f.writeDir(ctx, loc.dir, loc.block); err != nil {
			return err
		}
		return f.writeFAT(ctx)
	})
}

// Mv renames or moves an entry.
//
// A dst without a separator that names nothing in the current directory is a
// new name for src inside src's own directory. Otherwise dst must name a
// directory, and src keeps its name there. Directories can only be renamed.
func (f *FS) Mv(ctx context.Context, src, dst string) error {
	return f.do(ctx, "mv", src+" "+dst, func() error {
		if err := checkSourceLeaf(src); err != nil {
			return err
		}
		loc, err := f.lookup(ctx, src)
		if err != nil {
			return err
		}

		if !fspath.HasSeparator(dst) {
			_, ok, err := f.findInCwd(ctx, dst)
			if err != nil {
				return err
			}
			if !ok {
				return f.rename(ctx, loc, dst)
			}
		}

		target, err := f.targetDir(ctx, dst)
		if err != nil {
			return err
		}
		if loc.entry.IsDir() {
			return fmt.Errorf("%q into %q: %w", loc.entry.Name, dst, ErrIsDir)
		}

		td, err := f.readDir(ctx, target)
		if err != nil {
			return err
		}
		if _, ok := td.Find(loc.entry.Name); ok {
			return fmt.Errorf("%q: %w", loc.entry.Name, ErrExists)
		}
		slot, ok := td.FreeSlot()
		if !ok {
			return fmt.Errorf("directory full: %w", ErrNoSpace)
		}

		if err := td.Set(slot, loc.entry); err != nil {
			return err
		}
		if err := f.writeDir(ctx, target, td); err != nil {
			return err
		}
		if err := loc.block.Clear(loc.slot); err != nil {
			return err
		}
		return f.writeDir(ctx, loc.dir, loc.block)
	})
}

func (f *FS) rename(ctx context.Context, loc location, name string) error {
	if err := dirent.ValidateName(name); err != nil {
		return err
	}
	if _, ok := loc.block.Find(name); ok {
		return fmt.Errorf("%q: %w", name, ErrExists)
	}

	e := loc.entry
	e.Name = name
	if err := loc.block.Set(loc.slot, e); err != nil {
		return err
	}
	return f.writeDir(ctx, loc.dir, loc.block)
}

// Cp copies the file src.
//
// A dst containing a separator names the target directory; a dst naming a
// directory in the current directory copies into it. In both cases the copy
// keeps the source name. Any other dst is the name of the copy in the current
// directory.
func (f *FS) Cp(ctx context.Context, src, dst string) error {
	return f.do(ctx, "cp", src+" "+dst, func() error {
		loc, err := f.lookup(ctx, src)
		if err != nil {
			return err
		}
		if err := checkFile(loc.entry, dirent.Read); err != nil {
			return err
		}

		target, name := f.cwd, dst
		if fspath.HasSeparator(dst) {
			if target, err = f.targetDir(ctx, dst); err != nil {
				return err
			}
			name = loc.entry.Name
		} else {
			e, ok, err := f.findInCwd(ctx, dst)
			if err != nil {
				return err
			}
			if ok {
				if !e.IsDir() {
					return fmt.Errorf("%q: %w", dst, ErrExists)
				}
				target, name = e.FirstBlock, loc.entry.Name
			}
		}
		if err := dirent.ValidateName(name); err != nil {
			return err
		}

		td, err := f.readDir(ctx, target)
		if err != nil {
			return err
		}
		if _, ok := td.Find(name); ok {
			return fmt.Errorf("%q: %w", name, ErrExists)
		}
		slot, ok := td.FreeSlot()
		if !ok {
			return fmt.Errorf("directory full: %w", ErrNoSpace)
		}

		head, err := f.copyPayload(ctx, loc.entry)
		if err != nil {
			return err
		}
		if err := f.writeFAT(ctx); err != nil {
			return err
		}

		e := loc.entry
		e.Name = name
		e.FirstBlock = head
		if err := td.Set(slot, e); err != nil {
			return err
		}
		return f.writeDir(ctx, target, td)
	})
}

// Chmod replaces the access bits of path. mode is a single octal digit.
func (f *FS) Chmod(ctx context.Context, mode, path string) error {
	return f.do(ctx, "chmod", path, func() error {
		if len(mode) != 1 || mode[0] < '0' || mode[0] > '7' {
			return fmt.Errorf("mode %q: %w", mode, ErrInvalidArgument)
		}
		loc, err := f.lookup(ctx, path)
		if err != nil {
			return err
		}

		e := loc.entry
		e.Access = Access(mode[0] - '0')
		if err := loc.block.Set(loc.slot, e); err != nil {
			return err
		}
		return f.writeDir(ctx, loc.dir, loc.block)
	})
}

// checkSourceLeaf rejects "." and ".." as the entry an operation acts on.
func checkSourceLeaf(path string) error {
	if _, leaf := fspath.SplitLeaf(path); leaf == "." || leaf == dirent.ParentName {
		return fmt.Errorf("%q: %w", path, ErrInvalidArgument)
	}
	return nil
}
