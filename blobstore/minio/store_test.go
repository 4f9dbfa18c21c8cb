package minio

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fatfs/blobstore"
	"github.com/hupe1980/fatfs/blockdev"
)

func TestStore_KeyAndName(t *testing.T) {
	tests := []struct {
		prefix string
		name   string
		key    string
	}{
		{prefix: "", name: "disk.img", key: "disk.img"},
		{prefix: "vols/", name: "disk.img", key: "vols/disk.img"},
		{prefix: "vols", name: "a/b.snap", key: "vols/a/b.snap"},
	}

	for _, tt := range tests {
		s := NewStore(nil, "bucket", WithPrefix(tt.prefix))
		assert.Equal(t, tt.key, s.key(tt.name))
		assert.Equal(t, tt.name, s.name(tt.key))
	}
}

func TestStore_Options(t *testing.T) {
	s := NewStore(nil, "bucket", WithPartSize(16<<20), WithChecksum())

	opts := s.putOptions()
	assert.Equal(t, uint64(16<<20), opts.PartSize)
	assert.Equal(t, imageContentType, opts.ContentType)
	assert.True(t, s.opts.checksum)
	assert.Equal(t, "e3069283", crc32cHex([]byte("123456789")))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NoSuchKey"}))
	assert.True(t, isNotFound(minio.ErrorResponse{Code: "NotFound"}))
	assert.False(t, isNotFound(minio.ErrorResponse{Code: "AccessDenied"}))
	assert.False(t, isNotFound(errors.New("boom")))
}

// newIntegrationStore connects to FATFS_MINIO_ENDPOINT with the default
// minioadmin credentials.
func newIntegrationStore(t *testing.T) *Store {
	t.Helper()

	endpoint := os.Getenv("FATFS_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("FATFS_MINIO_ENDPOINT not set")
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
	})
	require.NoError(t, err)

	store := NewStore(client, "fatfs-test", WithPrefix(t.Name()), WithChecksum())
	require.NoError(t, store.EnsureBucket(context.Background()))
	return store
}

func TestIntegration_Store(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a.img", []byte("hello minio world")))

	blob, err := store.Open(ctx, "a.img")
	require.NoError(t, err)
	assert.Equal(t, int64(17), blob.Size())

	buf := make([]byte, 5)
	_, err = blob.ReadAt(ctx, buf, 6)
	require.NoError(t, err)
	assert.Equal(t, "minio", string(buf))

	w, err := store.Create(ctx, "b.snap")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.img", "b.snap"}, names)

	require.NoError(t, store.Delete(ctx, "a.img"))
	require.NoError(t, store.Delete(ctx, "b.snap"))
	_, err = store.Open(ctx, "a.img")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestIntegration_BlobDevice(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()
	defer func() { _ = store.Delete(ctx, "vol.img") }()

	dev, err := blockdev.OpenBlob(ctx, store, "vol.img", 4)
	require.NoError(t, err)

	p := make([]byte, blockdev.BlockSize)
	p[0] = 'z'
	require.NoError(t, dev.WriteBlock(ctx, 3, p))
	require.NoError(t, dev.Close())

	dev, err = blockdev.OpenBlob(ctx, store, "vol.img", 0)
	require.NoError(t, err)
	defer dev.Close()

	got := make([]byte, blockdev.BlockSize)
	require.NoError(t, dev.ReadBlock(ctx, 3, got))
	assert.Equal(t, p, got)
}
