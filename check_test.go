package fatfs

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fatfs/internal/dirent"
	"github.com/hupe1980/fatfs/internal/fat"
	"github.com/hupe1980/fatfs/testutil"
)

func TestCheck_RandomOperations(t *testing.T) {
	fsys, _ := newTestFS(t, 128)
	ctx := t.Context()
	rng := testutil.NewRNG(2024)

	var files []string
	dirs := []string{"/"}

	for i := range 300 {
		dir := dirs[rng.Intn(len(dirs))]
		name := joinPath(dir, fmt.Sprintf("n%03d", i))

		switch op := rng.Intn(6); {
		case op == 0:
			if fsys.Mkdir(ctx, name) == nil {
				dirs = append(dirs, name)
			}
		case op <= 2:
			if fsys.Create(ctx, name, rng.Content(rng.Intn(3*BlockSize))) == nil {
				files = append(files, name)
			}
		case op == 3 && len(files) > 0:
			_ = fsys.Append(ctx, files[rng.Intn(len(files))], files[rng.Intn(len(files))])
		case op == 4 && len(files) > 0:
			src := files[rng.Intn(len(files))]
			if fsys.Cp(ctx, src, dir) == nil {
				files = append(files, joinPath(dir, src[strings.LastIndex(src, "/")+1:]))
			}
		case op == 5 && len(files) > 0:
			j := rng.Intn(len(files))
			if fsys.Rm(ctx, files[j]) == nil {
				files = append(files[:j], files[j+1:]...)
			}
		}
	}

	report, err := fsys.Check(ctx)
	require.NoError(t, err)
	require.True(t, report.OK(), "%v", report.Problems)
	assert.Equal(t, len(files), report.Files)
	assert.Equal(t, len(dirs), report.Dirs)

	free, err := fsys.FreeBlocks(ctx)
	require.NoError(t, err)
	assert.Equal(t, free, report.FreeBlocks)
	assert.Equal(t, 126, report.UsedBlocks+report.FreeBlocks)
}

func TestCheck_Problems(t *testing.T) {
	tests := []struct {
		name    string
		corrupt func(t *testing.T, fsys *FS)
		want    string
	}{
		{
			name: "LeakedBlock",
			corrupt: func(t *testing.T, fsys *FS) {
				_, err := fsys.fat.Alloc()
				require.NoError(t, err)
			},
			want: "allocated but unreachable",
		},
		{
			name: "CrossLink",
			corrupt: func(t *testing.T, fsys *FS) {
				editEntry(t, fsys, fat.RootBlock, "b", func(e *dirent.Entry) {
					e.FirstBlock = 2
				})
			},
			want: "block is cross-linked",
		},
		{
			name: "SizeMismatch",
			corrupt: func(t *testing.T, fsys *FS) {
				editEntry(t, fsys, fat.RootBlock, "a", func(e *dirent.Entry) {
					e.Size = 3 * BlockSize
				})
			},
			want: "size 12288 needs 3 blocks, chain has 1",
		},
		{
			name: "ParentLink",
			corrupt: func(t *testing.T, fsys *FS) {
				editEntry(t, fsys, 4, dirent.ParentName, func(e *dirent.Entry) {
					e.FirstBlock = 3
				})
			},
			want: "parent link points to 3, want 1",
		},
		{
			name: "BrokenChain",
			corrupt: func(t *testing.T, fsys *FS) {
				editEntry(t, fsys, fat.RootBlock, "a", func(e *dirent.Entry) {
					e.FirstBlock = 7
				})
			},
			want: "broken chain",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys, _ := newTestFS(t, 16)
			ctx := t.Context()

			require.NoError(t, fsys.Create(ctx, "a", "first"))  // block 2
			require.NoError(t, fsys.Create(ctx, "b", "second")) // block 3
			require.NoError(t, fsys.Mkdir(ctx, "d"))            // block 4

			tt.corrupt(t, fsys)

			report, err := fsys.Check(ctx)
			require.NoError(t, err)
			require.False(t, report.OK())

			var msgs []string
			for _, p := range report.Problems {
				msgs = append(msgs, p.Msg)
			}
			assert.Condition(t, func() bool {
				for _, m := range msgs {
					if len(m) >= len(tt.want) && m[:len(tt.want)] == tt.want {
						return true
					}
				}
				return false
			}, "problems %v lack %q", msgs, tt.want)
		})
	}
}

// editEntry rewrites the named entry of directory block dir in place.
func editEntry(t *testing.T, fsys *FS, dir fat.BlockID, name string, edit func(*dirent.Entry)) {
	t.Helper()
	ctx := t.Context()

	d, err := fsys.readDir(ctx, dir)
	require.NoError(t, err)
	i, ok := d.Find(name)
	require.True(t, ok, "entry %q", name)

	e, err := d.At(i)
	require.NoError(t, err)
	edit(&e)
	require.NoError(t, d.Set(i, e))
	require.NoError(t, fsys.writeDir(ctx, dir, d))
}
