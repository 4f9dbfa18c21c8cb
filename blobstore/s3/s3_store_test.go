package s3

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fatfs/blobstore"
	"github.com/hupe1980/fatfs/blockdev"
	"github.com/hupe1980/fatfs/snapshot"
)

// newIntegrationStore uses FATFS_S3_BUCKET with the default AWS credential
// chain; FATFS_S3_ENDPOINT selects an S3-compatible server.
func newIntegrationStore(t *testing.T) *Store {
	t.Helper()

	bucket := os.Getenv("FATFS_S3_BUCKET")
	if bucket == "" {
		t.Skip("FATFS_S3_BUCKET not set")
	}

	optFns := []Option{WithPrefix(fmt.Sprintf("fatfs-test-%d/", time.Now().UnixNano()))}
	if ep := os.Getenv("FATFS_S3_ENDPOINT"); ep != "" {
		optFns = append(optFns, WithEndpoint(ep))
	}

	store, err := New(context.Background(), bucket, optFns...)
	require.NoError(t, err)
	return store
}

func TestIntegration_DeviceAndSnapshot(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	dev, err := blockdev.OpenBlob(ctx, store, "vol.img", 16)
	require.NoError(t, err)

	want := make([]byte, blockdev.BlockSize)
	copy(want, "block seven")
	require.NoError(t, dev.WriteBlock(ctx, 7, want))
	require.NoError(t, dev.Sync(ctx))

	_, err = snapshot.Save(ctx, dev, store, "vol.snap", snapshot.WithCompression(snapshot.CompressionZstd))
	require.NoError(t, err)
	require.NoError(t, dev.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"vol.img", "vol.snap"}, names)

	restored, err := snapshot.Restore(ctx, store, "vol.snap")
	require.NoError(t, err)

	got := make([]byte, blockdev.BlockSize)
	require.NoError(t, restored.ReadBlock(ctx, 7, got))
	assert.Equal(t, want, got)

	for _, name := range names {
		require.NoError(t, store.Delete(ctx, name))
	}
	_, err = store.Open(ctx, "vol.img")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
