package cache

// Key identifies one block of one device.
type Key struct {
	// Device names the source (file path, blob name) so one cache can serve
	// several devices.
	Device string
	Block  uint64
}

// BlockCache caches fixed-size device blocks. Get and Put copy, so callers
// keep ownership of their buffers.
type BlockCache interface {
	// Get copies a cached block into p and reports whether it was present.
	Get(key Key, p []byte) bool
	// Put caches a copy of p.
	Put(key Key, p []byte)
	Remove(key Key)
	Len() int
	// Close drops every entry.
	Close() error
	Stats() (hits, misses int64)
}
