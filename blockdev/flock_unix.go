//go:build unix

package blockdev

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fatfs/internal/fs"
	"golang.org/x/sys/unix"
)

func lockFile(f fs.File) error {
	err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
	if errors.Is(err, unix.EWOULDBLOCK) {
		return ErrLocked
	}
	if err != nil {
		return fmt.Errorf("blockdev: flock: %w", err)
	}
	return nil
}

func unlockFile(f fs.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
