// Package mmap maps device image files read-only into memory.
//
//	m, err := mmap.Open("disk.img")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Advise(mmap.AccessRandom)
//	b, err := m.View(id*4096, 4096) // valid until Close
//
// Unix uses mmap(2) and madvise(2). Windows uses CreateFileMapping and
// MapViewOfFile; Advise is a no-op there.
package mmap
