package testutil

import (
	"math/rand"
	"sync"

	"github.com/hupe1980/fatfs/blockdev"
	"github.com/hupe1980/fatfs/internal/dirent"
	"github.com/hupe1980/fatfs/internal/fat"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

const (
	nameAlphabet    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789_-"
	contentAlphabet = nameAlphabet + " .,;:!?\n"
)

// Name returns a random valid entry name of length n.
// n is clamped to the longest storable name.
func (r *RNG) Name(n int) string {
	n = max(1, min(n, dirent.MaxNameLen))
	return r.pick(nameAlphabet, n)
}

// Content returns n bytes of printable text. It never contains NUL.
func (r *RNG) Content(n int) string {
	return r.pick(contentAlphabet, n)
}

// Bytes fills a fresh slice of n bytes with arbitrary values, NUL included.
func (r *RNG) Bytes(n int) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := make([]byte, n)
	r.rand.Read(b)
	return b
}

func (r *RNG) pick(alphabet string, n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[r.rand.Intn(len(alphabet))]
	}
	return string(b)
}

// FormattedImage returns the image of a freshly formatted device with
// numBlocks blocks: an allocation table in block 0, an empty root directory
// in block 1 and zeroed data blocks.
func FormattedImage(numBlocks int) []byte {
	img := make([]byte, numBlocks*blockdev.BlockSize)
	fat.New(numBlocks).Encode((*[fat.BlockSize]byte)(img))

	var root dirent.Block
	root.Encode((*[fat.BlockSize]byte)(img[blockdev.BlockSize:]))
	return img
}

// FormattedDevice returns an in-memory device holding FormattedImage(numBlocks).
func FormattedDevice(numBlocks int) *blockdev.MemoryDevice {
	dev, err := blockdev.NewMemoryFromImage(FormattedImage(numBlocks))
	if err != nil {
		panic(err)
	}
	return dev
}
