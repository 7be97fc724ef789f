// Package blobstore stores heap images by name.
//
// # Implementations
//
//   - LocalStore: a directory on the local file system, read through mmap
//   - MemoryStore: process memory, for tests and ephemeral engines
//   - minio.Store: MinIO and other S3-compatible servers
//   - s3.Store: Amazon S3
//
// Writes are all-or-nothing: a blob created with Create is not visible under
// its name until Close succeeds.
//
// Use NewReader to feed a Blob to code that consumes an io.Reader, such as
// snapshot.Read.
package blobstore
