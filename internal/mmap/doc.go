// Package mmap provides read-only memory-mapped file access.
//
// It backs vectorstore.Mapped so that large .fvecs files can be searched
// without copying vectors onto the Go heap, and lets persisted indexes be
// decoded straight from the page cache.
//
//	m, err := mmap.Open("base.fvecs", mmap.Random)
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes()
//
// Unix uses mmap(2) and madvise(2) through golang.org/x/sys/unix; Windows
// uses CreateFileMapping/MapViewOfFile and ignores the access hint.
//
// Callers must not touch Bytes() after Close() returns.
package mmap
