// Package fs abstracts the file operations used by the local blob store so
// that write failures can be injected in tests.
//
//   - [LocalFS]: the os package
//   - [FaultyFS]: wraps another FileSystem and fails writes, syncs, closes
//     or renames on demand
//
// Reads are not covered: local blobs are read through memory maps.
package fs
