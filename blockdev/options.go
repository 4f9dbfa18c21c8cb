package blockdev

import (
	"github.com/hupe1980/fatfs/internal/fs"
	"github.com/hupe1980/fatfs/internal/resource"
)

type options struct {
	fsys        fs.FileSystem
	rc          *resource.Controller
	cacheBlocks int
	name        string
	noLock      bool
}

func defaultOptions() options {
	return options{
		fsys:        fs.Default,
		cacheBlocks: 256,
	}
}

// Option configures device adapters.
type Option func(*options)

// WithFileSystem replaces the file system used by FileDevice.
func WithFileSystem(fsys fs.FileSystem) Option {
	return func(o *options) {
		o.fsys = fsys
	}
}

// WithResourceController charges cached blocks against rc's memory limit and
// remote transfers against its IO rate.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithCacheSize sets the capacity of CachingDevice in blocks.
func WithCacheSize(blocks int) Option {
	return func(o *options) {
		o.cacheBlocks = blocks
	}
}

// WithIOLimit limits the bandwidth of a BlobDevice towards its store.
// It creates a private resource controller unless one is already set.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		if o.rc == nil {
			o.rc = resource.NewController(resource.Config{IOLimitBytesPerSec: bytesPerSec})
		}
	}
}

// WithName sets the name under which CachingDevice keys its blocks.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// WithoutLock disables the exclusive advisory lock of FileDevice.
func WithoutLock() Option {
	return func(o *options) {
		o.noLock = true
	}
}

func applyOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}
