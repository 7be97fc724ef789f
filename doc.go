// Package cellheap stores variable-length byte strings inline in a growable
// arena of 8-byte cells.
//
// A string of n bytes occupies n/8+1 consecutive cells: the bytes, a zero
// terminator, and zero padding to the end of the last cell. No length is
// stored; readers find the end by scanning for the terminator. The
// lower-level packages are usable on their own:
//
//   - heap: the append-only cell arena (Go memory or anonymous mmap)
//   - inline: the encoder, borrowed views and the run registry
//   - snapshot: the heap image format
//   - blobstore: local, in-memory, MinIO and S3 storage for heap images
//   - resource: memory limits, background slots and IO throttling
//
// # Quick Start
//
//	eng, _ := cellheap.New()
//	defer eng.Close()
//
//	addr, _ := eng.InlineString("hello")
//	s, _ := eng.Text(addr) // "hello"
//
// # Views
//
// A View borrows the heap. It stays readable while the heap grows and
// reports inline.ErrStaleView after Reset, Restore or Close:
//
//	v, _ := eng.ViewAt(addr, 1)
//	s, _ := v.Text() // "ello"
//
// # Snapshots
//
// With a blob store configured, the heap and its run index can be saved and
// restored:
//
//	store := blobstore.NewLocalStore("./images")
//	eng, _ := cellheap.New(cellheap.WithBlobStore(store))
//	eng.Snapshot(ctx, "heap-0001")
//	eng.Restore(ctx, "heap-0001")
//
// # Resource Limits
//
//	rc := resource.NewController(resource.Config{MemoryLimitBytes: 64 << 20})
//	eng, _ := cellheap.New(cellheap.WithResourceController(rc))
//
// Writes that would grow the heap past the limit fail with
// resource.ErrMemoryLimitExceeded and leave the heap unchanged.
package cellheap
