package fs

import (
	"io"
	"os"
)

// File is an open image or blob file.
type File interface {
	io.ReadWriteCloser
	io.ReaderAt
	io.WriterAt
	// Fd is needed for advisory locking of device images.
	Fd() uintptr
	Sync() error
	Stat() (os.FileInfo, error)
}

// FileSystem is the subset of package os used by file devices and local blob stores.
type FileSystem interface {
	OpenFile(name string, flag int, perm os.FileMode) (File, error)
	Remove(name string) error
	Rename(oldpath, newpath string) error
	MkdirAll(path string, perm os.FileMode) error
	ReadDir(name string) ([]os.DirEntry, error)
	Truncate(name string, size int64) error
}

// OS implements FileSystem with package os.
type OS struct{}

func (OS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	f, err := os.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (OS) Remove(name string) error                     { return os.Remove(name) }
func (OS) Rename(oldpath, newpath string) error         { return os.Rename(oldpath, newpath) }
func (OS) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }
func (OS) ReadDir(name string) ([]os.DirEntry, error)   { return os.ReadDir(name) }
func (OS) Truncate(name string, size int64) error       { return os.Truncate(name, size) }

// Default is the local file system.
var Default FileSystem = OS{}
