package testutil

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fatfs/internal/dirent"
	"github.com/hupe1980/fatfs/internal/fat"
)

func TestName(t *testing.T) {
	rng := NewRNG(4711)

	for _, n := range []int{0, 1, 12, 55, 200} {
		name := rng.Name(n)
		require.NoError(t, dirent.ValidateName(name), "name %q", name)
		assert.LessOrEqual(t, len(name), dirent.MaxNameLen)
	}
}

func TestContent(t *testing.T) {
	rng := NewRNG(4711)

	c := rng.Content(10_000)
	assert.Len(t, c, 10_000)
	assert.False(t, strings.ContainsRune(c, 0))
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	c1 := rng.Content(64)

	rng.Reset()
	c2 := rng.Content(64)

	assert.Equal(t, c1, c2)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestFormattedImage(t *testing.T) {
	img := FormattedImage(16)
	require.Len(t, img, 16*fat.BlockSize)

	table, err := fat.Decode((*[fat.BlockSize]byte)(img), 16)
	require.NoError(t, err)
	assert.Equal(t, 14, table.FreeCount())

	root, err := dirent.DecodeBlock((*[fat.BlockSize]byte)(img[fat.BlockSize:]))
	require.NoError(t, err)
	assert.Zero(t, root.LiveCount())

	assert.True(t, bytes.Equal(make([]byte, 14*fat.BlockSize), img[2*fat.BlockSize:]))
}

func TestFormattedDevice(t *testing.T) {
	dev := FormattedDevice(8)
	assert.Equal(t, 8, dev.NumBlocks())
	assert.Equal(t, FormattedImage(8), dev.Image())
}
