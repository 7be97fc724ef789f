// Package resource implements global limits for heaps and heap-image IO.
//
// A Controller governs three resources:
//
//   - Memory: bytes reserved by heap growth (non-blocking, fail-fast)
//   - Background slots: concurrent snapshot and restore jobs
//   - IO: token-bucket rate limit for image reads and writes
//
// # Memory
//
// Heap growth must not block the writer that triggered it, so AcquireMemory
// returns ErrMemoryLimitExceeded immediately when the limit would be crossed.
// The caller decides whether to reset the heap and retry.
//
//	rc := resource.NewController(resource.Config{MemoryLimitBytes: 64 << 20})
//	h, _ := heap.New(heap.WithMemoryAcquirer(rc))
//
// # IO
//
//	w := resource.NewRateLimitedWriter(ctx, blob, rc)
//
// # Nil Safety
//
// All methods accept a nil *Controller and become no-ops, so limits stay
// optional without nil checks at every call site.
package resource
