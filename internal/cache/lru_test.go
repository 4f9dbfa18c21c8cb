package cache

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/fatfs/internal/resource"
)

const bs = 16

func blk(b byte) []byte { return bytes.Repeat([]byte{b}, bs) }

func TestLRU_Eviction(t *testing.T) {
	c := NewLRU(2, bs, nil)
	p := make([]byte, bs)

	c.Put(Key{Block: 1}, blk('a'))
	c.Put(Key{Block: 2}, blk('b'))
	require.True(t, c.Get(Key{Block: 1}, p)) // 1 is now most recent
	c.Put(Key{Block: 3}, blk('c'))

	assert.False(t, c.Get(Key{Block: 2}, p), "least recently used block is evicted")
	require.True(t, c.Get(Key{Block: 3}, p))
	assert.Equal(t, blk('c'), p)
	assert.Equal(t, 2, c.Len())
}

func TestLRU_CopiesBuffers(t *testing.T) {
	c := NewLRU(4, bs, nil)
	src := blk('x')
	c.Put(Key{Block: 7}, src)
	src[0] = 'y'

	p := make([]byte, bs)
	require.True(t, c.Get(Key{Block: 7}, p))
	assert.Equal(t, blk('x'), p)

	p[0] = 'z'
	require.True(t, c.Get(Key{Block: 7}, p))
	assert.Equal(t, byte('x'), p[0])

	c.Put(Key{Block: 7}, blk('u'))
	require.True(t, c.Get(Key{Block: 7}, p))
	assert.Equal(t, blk('u'), p, "put overwrites in place")
	assert.Equal(t, 1, c.Len())
}

func TestLRU_IgnoresOddSizes(t *testing.T) {
	c := NewLRU(4, bs, nil)
	c.Put(Key{Block: 1}, make([]byte, bs-1))
	assert.Equal(t, 0, c.Len())

	zero := NewLRU(0, bs, nil)
	zero.Put(Key{Block: 1}, blk('a'))
	assert.Equal(t, 0, zero.Len())
}

func TestLRU_MemoryBudget(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 2 * bs})
	c := NewLRU(8, bs, rc)
	p := make([]byte, bs)

	for i := range 5 {
		c.Put(Key{Device: "disk", Block: uint64(i)}, blk(byte(i)))
	}
	assert.Equal(t, 2, c.Len(), "budget caps the cache below its capacity")
	assert.Equal(t, int64(2*bs), rc.MemoryUsage())
	require.True(t, c.Get(Key{Device: "disk", Block: 4}, p))
	assert.Equal(t, blk(4), p)

	c.Remove(Key{Device: "disk", Block: 4})
	assert.Equal(t, int64(bs), rc.MemoryUsage())

	require.NoError(t, c.Close())
	assert.Equal(t, int64(0), rc.MemoryUsage())
	assert.Equal(t, 0, c.Len())
}

func TestLRU_KeysByDevice(t *testing.T) {
	c := NewLRU(4, bs, nil)
	c.Put(Key{Device: "a", Block: 1}, blk('a'))
	c.Put(Key{Device: "b", Block: 1}, blk('b'))

	p := make([]byte, bs)
	require.True(t, c.Get(Key{Device: "b", Block: 1}, p))
	assert.Equal(t, blk('b'), p)
	assert.False(t, c.Get(Key{Device: "c", Block: 1}, p))

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
}
