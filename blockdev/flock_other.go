//go:build !unix

package blockdev

import "github.com/hupe1980/fatfs/internal/fs"

func lockFile(fs.File) error   { return nil }
func unlockFile(fs.File) error { return nil }
