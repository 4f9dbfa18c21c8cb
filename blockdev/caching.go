package blockdev

import (
	"context"

	"github.com/hupe1980/fatfs/internal/cache"
)

// CachingDevice keeps recently used blocks of an underlying device in an LRU cache.
// Writes go through to the underlying device.
type CachingDevice struct {
	Device
	cache cache.BlockCache
	name  string
}

var _ Device = (*CachingDevice)(nil)

// NewCaching wraps dev with a block cache.
// The cache holds WithCacheSize blocks (default 256) and charges them against
// WithResourceController when set.
func NewCaching(dev Device, optFns ...Option) *CachingDevice {
	opts := applyOptions(optFns)
	return &CachingDevice{
		Device: dev,
		cache:  cache.NewLRU(opts.cacheBlocks, BlockSize, opts.rc),
		name:   opts.name,
	}
}

func (d *CachingDevice) key(id int) cache.Key {
	return cache.Key{Device: d.name, Block: uint64(id)}
}

func (d *CachingDevice) ReadBlock(ctx context.Context, id int, p []byte) error {
	if err := checkBlock(id, d.NumBlocks(), p); err != nil {
		return err
	}

	if d.cache.Get(d.key(id), p) {
		return nil
	}

	if err := d.Device.ReadBlock(ctx, id, p); err != nil {
		return err
	}

	d.cache.Put(d.key(id), p)
	return nil
}

func (d *CachingDevice) WriteBlock(ctx context.Context, id int, p []byte) error {
	if err := checkBlock(id, d.NumBlocks(), p); err != nil {
		return err
	}

	d.cache.Remove(d.key(id))
	if err := d.Device.WriteBlock(ctx, id, p); err != nil {
		return err
	}

	d.cache.Put(d.key(id), p)
	return nil
}

// Sync flushes the underlying device.
func (d *CachingDevice) Sync(ctx context.Context) error {
	return Sync(ctx, d.Device)
}

// Stats returns cache hits and misses.
func (d *CachingDevice) Stats() (hits, misses int64) {
	return d.cache.Stats()
}

// Close drops the cache and closes the underlying device.
func (d *CachingDevice) Close() error {
	_ = d.cache.Close()
	return d.Device.Close()
}
