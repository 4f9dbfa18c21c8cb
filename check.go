package fatfs

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/fatfs/internal/dirent"
	"github.com/hupe1980/fatfs/internal/fat"
	"github.com/hupe1980/fatfs/internal/fspath"
)

// Problem is an inconsistency found by Check.
type Problem struct {
	// Path of the entry involved, empty for blocks no entry reaches.
	Path  string
	Block int
	Msg   string
}

func (p Problem) String() string {
	if p.Path == "" {
		return fmt.Sprintf("block %d: %s", p.Block, p.Msg)
	}
	return fmt.Sprintf("%s (block %d): %s", p.Path, p.Block, p.Msg)
}

// CheckReport summarises a consistency check.
type CheckReport struct {
	Files      int
	Dirs       int
	UsedBlocks int
	FreeBlocks int
	Problems   []Problem
}

// OK reports whether no problem was found.
func (r *CheckReport) OK() bool { return len(r.Problems) == 0 }

func (r *CheckReport) addf(path string, block fat.BlockID, format string, args ...any) {
	r.Problems = append(r.Problems, Problem{Path: path, Block: int(block), Msg: fmt.Sprintf(format, args...)})
}

// Check walks the directory tree from the root and cross-checks it against the
// allocation table. Problems are reported, never repaired. An error is returned
// only when the device cannot be read.
func (f *FS) Check(ctx context.Context) (*CheckReport, error) {
	var report *CheckReport
	err := f.do(ctx, "check", "", func() error {
		c := &checker{
			f:         f,
			report:    &CheckReport{FreeBlocks: f.fat.FreeCount()},
			reachable: roaring.New(),
		}
		c.reachable.AddMany([]uint32{uint32(fat.TableBlock), uint32(fat.RootBlock)})

		if err := c.walk(ctx); err != nil {
			return err
		}
		c.leaks()
		report = c.report
		return nil
	})
	return report, err
}

type checker struct {
	f         *FS
	report    *CheckReport
	reachable *roaring.Bitmap
}

type pendingDir struct {
	id     fat.BlockID
	parent fat.BlockID
	path   string
}

func (c *checker) walk(ctx context.Context) error {
	queue := []pendingDir{{id: fat.RootBlock, parent: fat.RootBlock, path: fspath.Separator}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		var b rawBlock
		if err := c.f.readBlock(ctx, cur.id, &b); err != nil {
			return err
		}
		d, err := dirent.DecodeBlock(&b)
		if err != nil {
			c.report.addf(cur.path, cur.id, "unreadable directory: %v", err)
			continue
		}
		c.report.Dirs++
		c.checkParentLink(cur, d)

		names := make(map[string]struct{})
		for slot, e := range d.Live() {
			if e.Name == dirent.ParentName {
				continue
			}
			path := joinPath(cur.path, e.Name)

			if _, dup := names[e.Name]; dup {
				c.report.addf(path, e.FirstBlock, "duplicate name in slot %d", slot)
			}
			names[e.Name] = struct{}{}

			if e.FirstBlock < fat.FirstDataBlock || int(e.FirstBlock) >= c.f.fat.Limit() {
				c.report.addf(path, e.FirstBlock, "first block out of range")
				continue
			}

			if e.IsDir() {
				if !c.claim(path, e.FirstBlock) {
					continue
				}
				if c.f.fat.Slot(e.FirstBlock) != fat.EOF {
					c.report.addf(path, e.FirstBlock, "directory block is not a single-block chain")
				}
				queue = append(queue, pendingDir{id: e.FirstBlock, parent: cur.id, path: path})
				continue
			}

			c.report.Files++
			c.checkFile(path, e)
		}
	}
	return nil
}

func (c *checker) checkParentLink(cur pendingDir, d *dirent.Block) {
	up, _ := d.At(0)
	hasUp := up.InUse && up.Name == dirent.ParentName

	if cur.id == fat.RootBlock {
		if _, ok := d.Find(dirent.ParentName); ok {
			c.report.addf(cur.path, cur.id, "root directory has a parent link")
		}
		return
	}
	switch {
	case !hasUp:
		c.report.addf(cur.path, cur.id, "missing parent link in slot 0")
	case up.FirstBlock != cur.parent:
		c.report.addf(cur.path, cur.id, "parent link points to %d, want %d", up.FirstBlock, cur.parent)
	}
}

func (c *checker) checkFile(path string, e dirent.Entry) {
	ids, err := c.f.fat.Chain(e.FirstBlock)
	if err != nil {
		c.report.addf(path, e.FirstBlock, "broken chain: %v", err)
		return
	}
	if want := blocksFor(e.Size); len(ids) != want {
		c.report.addf(path, e.FirstBlock, "size %d needs %d blocks, chain has %d", e.Size, want, len(ids))
	}
	for _, id := range ids {
		if !c.claim(path, id) {
			return
		}
	}
}

// claim marks id reachable and reports a cross-link when it already was.
func (c *checker) claim(path string, id fat.BlockID) bool {
	if !c.reachable.CheckedAdd(uint32(id)) {
		c.report.addf(path, id, "block is cross-linked")
		return false
	}
	return true
}

// leaks reports allocated blocks that no entry reaches.
func (c *checker) leaks() {
	allocated := roaring.New()
	for i := int(fat.FirstDataBlock); i < c.f.fat.Limit(); i++ {
		if !c.f.fat.IsFree(fat.BlockID(i)) {
			allocated.Add(uint32(i))
		}
	}
	c.report.UsedBlocks = int(allocated.GetCardinality())

	leaked := roaring.AndNot(allocated, c.reachable)
	it := leaked.Iterator()
	for it.HasNext() {
		c.report.addf("", fat.BlockID(it.Next()), "allocated but unreachable")
	}
}

func joinPath(dir, name string) string {
	if dir == fspath.Separator {
		return dir + name
	}
	return dir + fspath.Separator + name
}
