// Package fspath splits slash-separated volume paths.
package fspath

import "strings"

// Separator separates path segments.
const Separator = "/"

// IsAbs reports whether p starts at the root directory.
func IsAbs(p string) bool { return strings.HasPrefix(p, Separator) }

// HasSeparator reports whether p names anything but a single entry.
func HasSeparator(p string) bool { return strings.Contains(p, Separator) }

// SplitLeaf separates the last component of p from the directory path leading
// to it:
//
//	"/a/b/c" -> ("/a/b", "c")
//	"/c"     -> ("/", "c")
//	"c"      -> ("", "c")
func SplitLeaf(p string) (dir, leaf string) {
	i := strings.LastIndex(p, Separator)
	if i < 0 {
		return "", p
	}
	dir, leaf = p[:i], p[i+1:]
	if dir == "" {
		dir = Separator
	}
	return dir, leaf
}

// Next splits off the first segment of a relative path.
func Next(p string) (segment, rest string) {
	segment, rest, _ = strings.Cut(p, Separator)
	return segment, rest
}
