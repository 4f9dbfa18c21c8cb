package fatfs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/fatfs/internal/dirent"
)

// FileInfo describes a directory entry.
type FileInfo struct {
	Name  string
	IsDir bool
	// Size is the stored size of a file, which counts the terminating NUL.
	// It is 0 for directories.
	Size       int
	Access     Access
	FirstBlock int
}

func newFileInfo(e dirent.Entry) FileInfo {
	fi := FileInfo{
		Name:       e.Name,
		IsDir:      e.IsDir(),
		Access:     e.Access,
		FirstBlock: int(e.FirstBlock),
	}
	if !fi.IsDir {
		fi.Size = int(e.Size)
	}
	return fi
}

// listingHeader is the first line of FormatListing.
const listingHeader = "  Type    Size    accessrights    Name"

// String renders fi as a listing row.
func (fi FileInfo) String() string {
	kind, size := "File", strconv.Itoa(fi.Size)
	if fi.IsDir {
		kind, size = "Dir", "-"
	}
	return fmt.Sprintf("  %-8s%-8s%-16s%s", kind, size, fi.Access, fi.Name)
}

// FormatListing renders a directory listing with a header line.
func FormatListing(infos []FileInfo) string {
	var sb strings.Builder
	sb.WriteString(listingHeader)
	sb.WriteByte('\n')
	for _, fi := range infos {
		sb.WriteString(fi.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
