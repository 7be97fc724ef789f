// Package mmap provides memory mappings for off-heap cell storage and
// zero-copy file reads.
//
// # Anonymous Mappings
//
// MapAnon creates read-write anonymous mappings. The heap uses them as
// backing storage when configured off-heap, keeping large cell arrays outside
// the Go garbage collector's view.
//
// # File Mappings
//
// Open maps a file read-only. The local blob store uses it to read heap
// images without copying them through kernel buffers.
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) / munmap(2)
//   - Windows: CreateFileMapping/MapViewOfFile and VirtualAlloc
//
// # Thread Safety
//
// A Mapping is safe for concurrent reads. Close is idempotent, but callers
// must ensure nobody touches Bytes() after Close returns.
package mmap
