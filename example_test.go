package fatfs_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/hupe1980/fatfs"
	"github.com/hupe1980/fatfs/blockdev"
)

// Example demonstrates a short session on an in-memory device.
func Example() {
	ctx := context.Background()

	dev, err := blockdev.NewMemory(64)
	if err != nil {
		log.Fatal(err)
	}

	fsys, err := fatfs.Open(ctx, dev, fatfs.WithAutoFormat())
	if err != nil {
		log.Fatal(err)
	}
	defer fsys.Close()

	_ = fsys.Mkdir(ctx, "docs")
	_ = fsys.Create(ctx, "docs/readme", "hello")
	_ = fsys.Create(ctx, "notes", "a")
	_ = fsys.Append(ctx, "docs/readme", "notes")

	content, _ := fsys.Cat(ctx, "notes")
	fmt.Println(content)

	infos, _ := fsys.Ls(ctx)
	fmt.Print(fatfs.FormatListing(infos))
	// Output:
	// a
	// hello
	//   Type    Size    accessrights    Name
	//   Dir     -       rwx             docs
	//   File    8       rw-             notes
}

// Example_errors shows how rejected operations are reported.
func Example_errors() {
	ctx := context.Background()

	dev, _ := blockdev.NewMemory(8)
	fsys, _ := fatfs.Open(ctx, dev, fatfs.WithAutoFormat())
	defer fsys.Close()

	_ = fsys.Mkdir(ctx, "d")
	_ = fsys.Create(ctx, "d/f", "x")

	err := fsys.Rm(ctx, "d")
	fmt.Println(errors.Is(err, fatfs.ErrDirNotEmpty))

	err = fsys.Cd(ctx, "d/f")
	fmt.Println(err)
	// Output:
	// true
	// cd d/f: "f": not a directory
}

// Example_pwd walks the tree with Cd.
func Example_pwd() {
	ctx := context.Background()

	dev, _ := blockdev.NewMemory(16)
	fsys, _ := fatfs.Open(ctx, dev, fatfs.WithAutoFormat())
	defer fsys.Close()

	_ = fsys.Mkdir(ctx, "a")
	_ = fsys.Mkdir(ctx, "a/b")
	_ = fsys.Cd(ctx, "a/b")

	pwd, _ := fsys.Pwd(ctx)
	fmt.Println(pwd)

	_ = fsys.Cd(ctx, "..")
	pwd, _ = fsys.Pwd(ctx)
	fmt.Println(pwd)
	// Output:
	// /a/b
	// /a
}
