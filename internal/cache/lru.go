package cache

import (
	"container/list"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/fatfs/internal/resource"
)

// LRU is a BlockCache holding at most capacity blocks of blockSize bytes.
// Safe for concurrent use.
type LRU struct {
	mu        sync.Mutex
	blockSize int
	capacity  int
	items     map[Key]*list.Element
	order     *list.List // front is most recent
	rc        *resource.Controller

	hits   atomic.Int64
	misses atomic.Int64
}

var _ BlockCache = (*LRU)(nil)

type entry struct {
	key Key
	buf []byte
}

// NewLRU creates a cache of capacity blocks. Every buffer it allocates is
// charged against rc's memory limit; when the limit is reached the cache stops
// growing and recycles its least recently used buffer instead.
func NewLRU(capacity, blockSize int, rc *resource.Controller) *LRU {
	return &LRU{
		blockSize: blockSize,
		capacity:  capacity,
		items:     make(map[Key]*list.Element),
		order:     list.New(),
		rc:        rc,
	}
}

func (c *LRU) Get(key Key, p []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		return false
	}
	c.hits.Add(1)
	c.order.MoveToFront(el)
	copy(p, el.Value.(*entry).buf)
	return true
}

// Put ignores buffers that are not exactly one block.
func (c *LRU) Put(key Key, p []byte) {
	if len(p) != c.blockSize || c.capacity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		copy(el.Value.(*entry).buf, p)
		c.order.MoveToFront(el)
		return
	}

	if c.order.Len() < c.capacity && c.rc.TryAcquireMemory(int64(c.blockSize)) {
		e := &entry{key: key, buf: make([]byte, c.blockSize)}
		copy(e.buf, p)
		c.items[key] = c.order.PushFront(e)
		return
	}

	// Full, by capacity or by memory budget: reuse the oldest buffer.
	el := c.order.Back()
	if el == nil {
		return
	}
	e := el.Value.(*entry)
	delete(c.items, e.key)
	e.key = key
	copy(e.buf, p)
	c.items[key] = el
	c.order.MoveToFront(el)
}

func (c *LRU) Remove(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.drop(el)
	}
}

func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Close drops every entry and returns its memory to the controller.
func (c *LRU) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for el := c.order.Back(); el != nil; el = c.order.Back() {
		c.drop(el)
	}
	return nil
}

func (c *LRU) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *LRU) drop(el *list.Element) {
	c.order.Remove(el)
	delete(c.items, el.Value.(*entry).key)
	c.rc.ReleaseMemory(int64(c.blockSize))
}
