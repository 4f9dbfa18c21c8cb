package snapshot

import (
	"runtime"

	"github.com/hupe1980/fatfs/internal/resource"
)

type options struct {
	compression Compression
	chunkBlocks int
	concurrency int
	rc          *resource.Controller
}

func defaultOptions() options {
	return options{
		compression: CompressionZstd,
		chunkBlocks: 64,
		concurrency: runtime.GOMAXPROCS(0),
	}
}

// Option configures Save and Load.
type Option func(*options)

// WithCompression selects the chunk codec. Default: CompressionZstd.
func WithCompression(c Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

// WithChunkBlocks sets the number of device blocks per compressed chunk. Default: 64.
func WithChunkBlocks(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkBlocks = n
		}
	}
}

// WithConcurrency bounds the number of chunks processed in parallel.
// Default: GOMAXPROCS.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithResourceController makes every chunk worker hold a worker slot of rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

func applyOptions(optFns []Option) options {
	o := defaultOptions()
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}
