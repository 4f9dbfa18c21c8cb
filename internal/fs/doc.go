// Package fs abstracts the local file system under file devices and local
// blob stores so tests can inject faults.
//
// Production code uses [Default]. Tests wrap it in a [FaultyFS] and add rules
// by file name:
//
//	faulty := fs.NewFaultyFS(nil)
//	faulty.AddRule("disk.img", fs.Fault{
//	    FailAfterBytes: -1,
//	    BadSectors:     []fs.Range{{Off: 3 * 4096, Len: 4096}},
//	})
//	dev, err := blockdev.OpenFile(path, 8, blockdev.WithFileSystem(faulty))
//
// Calls take no context; local syscalls cannot be interrupted. Remote stores
// go through blobstore.BlobStore, which does.
package fs
