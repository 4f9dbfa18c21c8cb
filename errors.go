package fatfs

import (
	"errors"
	"fmt"

	"github.com/hupe1980/fatfs/blockdev"
	"github.com/hupe1980/fatfs/internal/dirent"
	"github.com/hupe1980/fatfs/internal/fat"
)

var (
	// ErrNotFound is returned when a path component does not name a live entry.
	ErrNotFound = errors.New("no such file or directory")
	// ErrExists is returned when the target name is already taken.
	ErrExists = errors.New("file exists")
	// ErrNameTooLong is returned for names longer than 55 bytes.
	ErrNameTooLong = errors.New("file name too long")
	// ErrNotDir is returned when a path walks through a file.
	ErrNotDir = errors.New("not a directory")
	// ErrIsDir is returned when a file operation is applied to a directory.
	ErrIsDir = errors.New("is a directory")
	// ErrPermission is returned when the access bits forbid the operation.
	ErrPermission = errors.New("permission denied")
	// ErrNoSpace is returned when no free block or directory slot is left.
	ErrNoSpace = errors.New("no space left on device")
	// ErrInvalidArgument is returned for malformed names, modes, paths and contents.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDirNotEmpty is returned when removing a directory that still has entries.
	ErrDirNotEmpty = errors.New("directory not empty")
	// ErrNotFormatted is returned by Open for a device without a valid allocation table.
	ErrNotFormatted = errors.New("device is not formatted")
	// ErrClosed is returned by operations on a closed file system.
	ErrClosed = errors.New("file system closed")
	// ErrCorrupt is returned when on-device structures are inconsistent.
	ErrCorrupt = errors.New("file system corrupt")
	// ErrReadOnly is returned by mutating operations on a read-only device.
	ErrReadOnly = errors.New("read-only file system")
)

// PathError records an error and the operation and path that caused it.
// Err is one of the sentinel errors above, possibly wrapping a lower-level cause.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	if e.Path == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *PathError) Unwrap() error { return e.Err }

// userErrors are caused by the request rather than by the device.
var userErrors = []error{
	ErrNotFound, ErrExists, ErrNameTooLong, ErrNotDir, ErrIsDir, ErrPermission,
	ErrNoSpace, ErrInvalidArgument, ErrDirNotEmpty, ErrNotFormatted, ErrClosed, ErrReadOnly,
}

func isUserError(err error) bool {
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, fat.ErrNoSpace):
		return fmt.Errorf("%w: %w", ErrNoSpace, err)
	case errors.Is(err, dirent.ErrNameTooLong):
		return fmt.Errorf("%w: %w", ErrNameTooLong, err)
	case errors.Is(err, dirent.ErrInvalidName):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	case errors.Is(err, fat.ErrCorrupt),
		errors.Is(err, fat.ErrReserved),
		errors.Is(err, dirent.ErrUnknownKind),
		errors.Is(err, dirent.ErrSlotOutOfRange):
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	case errors.Is(err, fat.ErrInvalidImage):
		return fmt.Errorf("%w: %w", ErrNotFormatted, err)
	case errors.Is(err, blockdev.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	case errors.Is(err, blockdev.ErrReadOnly):
		return fmt.Errorf("%w: %w", ErrReadOnly, err)
	}
	return err
}

func wrapError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PathError
	if errors.As(err, &pe) {
		return err
	}
	return &PathError{Op: op, Path: path, Err: translateError(err)}
}
