// Package fatfs implements a small FAT-style file system on top of a fixed-size
// block device.
//
// The device is split into 4096-byte blocks. Block 0 holds the file allocation
// table, block 1 the root directory. Every other block belongs to a file chain,
// a sub-directory or the free pool.
//
// # Quick Start
//
//	ctx := context.Background()
//	dev, _ := blockdev.NewMemory(2048)
//
//	fsys, _ := fatfs.Open(ctx, dev, fatfs.WithAutoFormat())
//	defer fsys.Close()
//
//	_ = fsys.Mkdir(ctx, "docs")
//	_ = fsys.Create(ctx, "docs/readme", "hello")
//	_ = fsys.Cd(ctx, "docs")
//
//	content, _ := fsys.Cat(ctx, "readme")  // "hello"
//	pwd, _ := fsys.Pwd(ctx)                 // "/docs"
//
//	infos, _ := fsys.Ls(ctx)
//	fmt.Print(fatfs.FormatListing(infos))
//
// # Devices
//
// Any blockdev.Device works. The blockdev package ships an in-memory device,
// a locked image file, an LRU caching wrapper and a device backed by a
// blobstore.BlobStore (local directory, S3 or MinIO). The snapshot package
// saves and restores compressed device images.
//
//	dev, _ := blockdev.OpenFile("disk.img", 2048)
//	fsys, _ := fatfs.Open(ctx, dev)
//
// # Errors
//
// Every operation returns a *PathError wrapping one of the sentinel errors:
//
//	err := fsys.Rm(ctx, "docs")
//	if errors.Is(err, fatfs.ErrDirNotEmpty) {
//	    // ...
//	}
//
// A failing operation leaves the device unchanged, unless the device itself
// fails part way through.
//
// # Observability
//
//	metrics := &fatfs.BasicMetricsCollector{}
//	fsys, _ := fatfs.Open(ctx, dev,
//	    fatfs.WithLogger(fatfs.NewJSONLogger(slog.LevelDebug)),
//	    fatfs.WithMetricsCollector(metrics),
//	)
//
// An FS is one session: the current directory is part of its state.
// Operations are serialised by an internal mutex.
package fatfs
