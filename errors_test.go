package fatfs

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fatfs/blockdev"
	"github.com/hupe1980/fatfs/testutil"
)

func TestPathError(t *testing.T) {
	fsys, _ := newTestFS(t, 8)

	_, err := fsys.Cat(t.Context(), "/missing")

	var pe *PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "cat", pe.Op)
	assert.Equal(t, "/missing", pe.Path)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, `cat /missing: "missing": no such file or directory`, err.Error())
}

// Every rejected operation must leave the device image byte-identical and the
// free count unchanged.
func TestFailedOperationsLeaveDeviceUnchanged(t *testing.T) {
	fsys, dev := newTestFS(t, 10)
	ctx := t.Context()

	require.NoError(t, fsys.Create(ctx, "a", "hello"))
	require.NoError(t, fsys.Create(ctx, "ro", "read only"))
	require.NoError(t, fsys.Chmod(ctx, "4", "ro"))
	require.NoError(t, fsys.Mkdir(ctx, "d"))
	require.NoError(t, fsys.Create(ctx, "d/x", strings.Repeat("x", 3*BlockSize)))

	tests := []struct {
		name string
		op   func() error
		want error
	}{
		{"CreateExists", func() error { return fsys.Create(ctx, "a", "y") }, ErrExists},
		{"CreateNoSpace", func() error { return fsys.Create(ctx, "big", strings.Repeat("b", 4*BlockSize)) }, ErrNoSpace},
		{"CreateLongName", func() error { return fsys.Create(ctx, strings.Repeat("l", 60), "") }, ErrNameTooLong},
		{"CatDir", func() error { _, err := fsys.Cat(ctx, "d"); return err }, ErrIsDir},
		{"AppendNoWrite", func() error { return fsys.Append(ctx, "a", "ro") }, ErrPermission},
		{"AppendNoSpace", func() error { return fsys.Append(ctx, "d/x", "d/x") }, ErrNoSpace},
		{"MkdirExists", func() error { return fsys.Mkdir(ctx, "d") }, ErrExists},
		{"RmNotEmpty", func() error { return fsys.Rm(ctx, "d") }, ErrDirNotEmpty},
		{"RmMissing", func() error { return fsys.Rm(ctx, "d/nope") }, ErrNotFound},
		{"MvDirIntoDir", func() error { return fsys.Mv(ctx, "d", "/") }, ErrIsDir},
		{"MvOntoFile", func() error { return fsys.Mv(ctx, "a", "ro") }, ErrExists},
		{"CpNoSpace", func() error { return fsys.Cp(ctx, "d/x", "copy") }, ErrNoSpace},
		{"ChmodBadMode", func() error { return fsys.Chmod(ctx, "8", "a") }, ErrInvalidArgument},
		{"CdThroughFile", func() error { return fsys.Cd(ctx, "a/b") }, ErrNotDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			image := dev.Image()
			free, err := fsys.FreeBlocks(ctx)
			require.NoError(t, err)

			err = tt.op()
			require.ErrorIs(t, err, tt.want)

			assert.Equal(t, image, dev.Image())
			after, err := fsys.FreeBlocks(ctx)
			require.NoError(t, err)
			assert.Equal(t, free, after)
		})
	}
}

// failingDevice fails every write after the first n.
type failingDevice struct {
	*blockdev.MemoryDevice
	n int
}

var errInjected = errors.New("injected write failure")

func (d *failingDevice) WriteBlock(ctx context.Context, id int, p []byte) error {
	if d.n <= 0 {
		return errInjected
	}
	d.n--
	return d.MemoryDevice.WriteBlock(ctx, id, p)
}

func TestDeviceFailureRollsBackTable(t *testing.T) {
	dev := &failingDevice{MemoryDevice: testutil.FormattedDevice(16), n: 2}

	fsys, err := Open(t.Context(), dev)
	require.NoError(t, err)
	defer fsys.Close()

	ctx := t.Context()

	// The data blocks are written, then the table write fails.
	err = fsys.Create(ctx, "a", strings.Repeat("a", BlockSize))
	require.ErrorIs(t, err, errInjected)
	assert.False(t, isUserError(err))

	free, err := fsys.FreeBlocks(ctx)
	require.NoError(t, err)
	assert.Equal(t, 14, free)

	_, err = fsys.Stat(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}
