package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrWriterClosed is returned when writing to a WritableBlob after Close.
var ErrWriterClosed = errors.New("blobstore: writer closed")

// MemoryStore keeps device images and snapshots in memory.
// Stored blobs are immutable: Put and Close store a private copy, so readers
// share it without copying. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	stats memoryStats
}

type memoryStats struct {
	reads, bytesRead     atomic.Int64
	writes, bytesWritten atomic.Int64
}

// MemoryStoreStats counts the traffic a MemoryStore has served.
type MemoryStoreStats struct {
	// Reads counts ReadAt and ReadRange calls.
	Reads        int64
	BytesRead    int64
	Writes       int64
	BytesWritten int64
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Stats returns the traffic counters. Lazily fetching devices are expected to
// read far fewer bytes than the image size.
func (m *MemoryStore) Stats() MemoryStoreStats {
	return MemoryStoreStats{
		Reads:        m.stats.reads.Load(),
		BytesRead:    m.stats.bytesRead.Load(),
		Writes:       m.stats.writes.Load(),
		BytesWritten: m.stats.bytesWritten.Load(),
	}
}

func (m *MemoryStore) Open(ctx context.Context, name string) (Blob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	data, ok := m.blobs[name]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return &memoryBlob{data: data, stats: &m.stats}, nil
}

// Create returns a writer whose content replaces name on Close.
func (m *MemoryStore) Create(ctx context.Context, name string) (WritableBlob, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memoryWriter{store: m, name: name}, nil
}

func (m *MemoryStore) Put(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.store(name, bytes.Clone(data))
	return nil
}

func (m *MemoryStore) store(name string, data []byte) {
	if data == nil {
		data = []byte{}
	}

	m.mu.Lock()
	m.blobs[name] = data
	m.mu.Unlock()

	m.stats.writes.Add(1)
	m.stats.bytesWritten.Add(int64(len(data)))
}

func (m *MemoryStore) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.blobs, name)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) List(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var names []string
	for name := range m.blobs {
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names, nil
}

type memoryBlob struct {
	data  []byte
	stats *memoryStats
}

func (b *memoryBlob) ReadAt(ctx context.Context, p []byte, off int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if off < 0 || off >= int64(len(b.data)) {
		return 0, io.EOF
	}

	n := copy(p, b.data[off:])
	b.stats.reads.Add(1)
	b.stats.bytesRead.Add(int64(n))
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *memoryBlob) ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if off < 0 || off >= int64(len(b.data)) {
		return nil, io.EOF
	}

	end := min(off+length, int64(len(b.data)))
	b.stats.reads.Add(1)
	b.stats.bytesRead.Add(end - off)
	return io.NopCloser(bytes.NewReader(b.data[off:end])), nil
}

func (b *memoryBlob) Size() int64 { return int64(len(b.data)) }

func (b *memoryBlob) Close() error { return nil }

type memoryWriter struct {
	store  *MemoryStore
	name   string
	buf    bytes.Buffer
	closed bool
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrWriterClosed
	}
	return w.buf.Write(p)
}

func (w *memoryWriter) Sync() error { return nil }

// Abort drops the buffered content.
func (w *memoryWriter) Abort() error {
	w.closed = true
	w.buf.Reset()
	return nil
}

// Close publishes the buffered content. Closing twice is a no-op.
func (w *memoryWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.store.store(w.name, bytes.Clone(w.buf.Bytes()))
	return nil
}
