// Package cache provides an LRU cache for fixed-size device blocks.
//
// The cache owns its buffers: Put copies in and Get copies out. Once full it
// recycles the least recently used buffer, so a warm cache does not allocate.
package cache
