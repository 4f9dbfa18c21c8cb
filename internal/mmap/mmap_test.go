package mmap

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "disk.img")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestMapping_View(t *testing.T) {
	data := make([]byte, 3*4096)
	for i := range data {
		data[i] = byte(i / 4096)
	}
	m, err := Open(writeImage(t, data))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(data), m.Size())
	require.NoError(t, m.Advise(AccessRandom))
	require.NoError(t, m.Advise(AccessSequential))

	b, err := m.View(4096, 4096)
	require.NoError(t, err)
	require.Len(t, b, 4096)
	assert.Equal(t, byte(1), b[0])
	assert.Equal(t, byte(1), b[4095])

	b, err = m.View(2*4096, 4096)
	require.NoError(t, err)
	assert.Equal(t, byte(2), b[0])

	for _, r := range [][2]int{{-1, 1}, {0, -1}, {2 * 4096, 4097}, {3 * 4096, 1}} {
		_, err = m.View(r[0], r[1])
		assert.ErrorIs(t, err, ErrOutOfBounds, "%v", r)
	}
}

func TestMapping_ReadAt(t *testing.T) {
	m, err := Open(writeImage(t, []byte("Hello, Mmap!")))
	require.NoError(t, err)
	defer m.Close()

	buf := make([]byte, 5)
	n, err := m.ReadAt(buf, 7)
	require.NoError(t, err)
	assert.Equal(t, "Mmap!", string(buf[:n]))

	n, err = m.ReadAt(make([]byte, 10), 7)
	assert.Equal(t, 5, n)
	assert.Equal(t, io.EOF, err)

	_, err = m.ReadAt(buf, 100)
	assert.Equal(t, io.EOF, err)
	_, err = m.ReadAt(buf, -1)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestMapping_Empty(t *testing.T) {
	m, err := Open(writeImage(t, nil))
	require.NoError(t, err)

	assert.Equal(t, 0, m.Size())
	b, err := m.View(0, 0)
	require.NoError(t, err)
	assert.Empty(t, b)
	require.NoError(t, m.Close())
}

func TestMapping_Close(t *testing.T) {
	m, err := Open(writeImage(t, make([]byte, 4096)))
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err = m.View(0, 1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = m.ReadAt(make([]byte, 1), 0)
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, m.Advise(AccessRandom), ErrClosed)
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.img"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
