package mmap

import "errors"

// AccessPattern is a paging hint for the kernel.
type AccessPattern int

const (
	AccessDefault AccessPattern = iota
	// AccessSequential suits whole-image scans such as snapshots.
	AccessSequential
	// AccessRandom suits block-at-a-time access by a mounted file system.
	AccessRandom
)

var (
	ErrClosed      = errors.New("mmap: mapping is closed")
	ErrTooLarge    = errors.New("mmap: file too large to map")
	ErrOutOfBounds = errors.New("mmap: range out of bounds")
)
