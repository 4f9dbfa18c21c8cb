package fatfs

import (
	"context"
	"fmt"

	"github.com/hupe1980/fatfs/internal/dirent"
	"github.com/hupe1980/fatfs/internal/fat"
	"github.com/hupe1980/fatfs/internal/fspath"
)

// location is a live entry together with the directory block that holds it.
type location struct {
	dir   fat.BlockID
	slot  int
	entry dirent.Entry
	block *dirent.Block
}

// resolve walks p from start and returns the directory block it names.
// An empty path names start; a leading separator restarts at the root.
func (f *FS) resolve(ctx context.Context, start fat.BlockID, p string) (fat.BlockID, error) {
	cur := start
	if fspath.IsAbs(p) {
		cur = fat.RootBlock
	}

	for rest := p; rest != ""; {
		var seg string
		seg, rest = fspath.Next(rest)
		if seg == "" {
			continue
		}

		d, err := f.readDir(ctx, cur)
		if err != nil {
			return 0, err
		}
		i, ok := d.Find(seg)
		if !ok {
			return 0, fmt.Errorf("%q: %w", seg, ErrNotFound)
		}
		e, _ := d.At(i)
		if !e.IsDir() {
			return 0, fmt.Errorf("%q: %w", seg, ErrNotDir)
		}
		cur = e.FirstBlock
	}
	return cur, nil
}

// parent resolves the directory part of p and returns it with the leaf name.
func (f *FS) parent(ctx context.Context, p string) (fat.BlockID, *dirent.Block, string, error) {
	dir, leaf := fspath.SplitLeaf(p)
	if leaf == "" {
		return 0, nil, "", fmt.Errorf("%q: missing name: %w", p, ErrInvalidArgument)
	}

	id, err := f.resolve(ctx, f.cwd, dir)
	if err != nil {
		return 0, nil, "", err
	}
	d, err := f.readDir(ctx, id)
	if err != nil {
		return 0, nil, "", err
	}
	return id, d, leaf, nil
}

// lookup finds the live entry named by p.
func (f *FS) lookup(ctx context.Context, p string) (location, error) {
	id, d, leaf, err := f.parent(ctx, p)
	if err != nil {
		return location{}, err
	}

	i, ok := d.Find(leaf)
	if !ok {
		return location{}, fmt.Errorf("%q: %w", leaf, ErrNotFound)
	}
	e, _ := d.At(i)
	return location{dir: id, slot: i, entry: e, block: d}, nil
}

// targetDir resolves a copy or move destination that must name a directory.
// A final component naming a file reports ErrExists.
func (f *FS) targetDir(ctx context.Context, p string) (fat.BlockID, error) {
	if _, leaf := fspath.SplitLeaf(p); leaf == "" {
		return f.resolve(ctx, f.cwd, p)
	}

	loc, err := f.lookup(ctx, p)
	if err != nil {
		return 0, err
	}
	if !loc.entry.IsDir() {
		return 0, fmt.Errorf("%q: %w", loc.entry.Name, ErrExists)
	}
	return loc.entry.FirstBlock, nil
}

// findInCwd looks up a bare name in the current directory.
func (f *FS) findInCwd(ctx context.Context, name string) (dirent.Entry, bool, error) {
	d, err := f.readDir(ctx, f.cwd)
	if err != nil {
		return dirent.Entry{}, false, err
	}
	i, ok := d.Find(name)
	if !ok {
		return dirent.Entry{}, false, nil
	}
	e, _ := d.At(i)
	return e, true, nil
}

// Cd changes the current directory. On failure the current directory is unchanged.
func (f *FS) Cd(ctx context.Context, p string) error {
	return f.do(ctx, "cd", p, func() error {
		id, err := f.resolve(ctx, f.cwd, p)
		if err != nil {
			return err
		}
		f.cwd = id
		return nil
	})
}

// Pwd returns the absolute path of the current directory.
func (f *FS) Pwd(ctx context.Context) (string, error) {
	var path string
	err := f.do(ctx, "pwd", "", func() error {
		var err error
		path, err = f.pathOf(ctx, f.cwd)
		return err
	})
	return path, err
}

// pathOf climbs ".." links from id to the root.
func (f *FS) pathOf(ctx context.Context, id fat.BlockID) (string, error) {
	if id == fat.RootBlock {
		return fspath.Separator, nil
	}

	path := ""
	for depth := 0; id != fat.RootBlock; depth++ {
		if depth >= fat.Slots {
			return "", fmt.Errorf("directory %d: parent links loop: %w", id, ErrCorrupt)
		}

		d, err := f.readDir(ctx, id)
		if err != nil {
			return "", err
		}
		up, err := d.At(0)
		if err != nil {
			return "", err
		}
		if !up.InUse || up.Name != dirent.ParentName {
			return "", fmt.Errorf("directory %d: missing parent link: %w", id, ErrCorrupt)
		}

		pd, err := f.readDir(ctx, up.FirstBlock)
		if err != nil {
			return "", err
		}
		i, ok := pd.FindBlock(id)
		if !ok {
			return "", fmt.Errorf("directory %d: not listed in parent %d: %w", id, up.FirstBlock, ErrCorrupt)
		}
		e, _ := pd.At(i)

		path = fspath.Separator + e.Name + path
		id = up.FirstBlock
	}
	return path, nil
}
