// Package heap implements the cell arena that backs an execution engine's
// values.
//
// A Heap is an append-only, growable sequence of fixed-width cells. Each cell
// is a 64-bit word (Width bytes). Callers address the heap at cell
// granularity (Addr) and may read it at byte granularity through Bytes.
//
// # Writing
//
// All mutation happens inside Update, which holds the exclusive lock and
// hands the callback a Tail exposing the raw primitives: current length,
// Reserve, the uninitialized Spare region and Commit.
//
//	err := h.Update(func(t *heap.Tail) error {
//	    start := t.Len()
//	    if err := t.Reserve(2); err != nil {
//	        return err
//	    }
//	    spare := t.Spare()
//	    spare[0] = heap.FromRaw(42)
//	    spare[1] = heap.FromRaw(0)
//	    t.Commit(start + 2)
//	    return nil
//	})
//
// # Reading
//
// Committed cells are immutable. Bytes returns the committed region as a
// borrowed slice; it stays readable after later growth because the storage it
// points into is never released before Close. Reset is the only operation that
// invalidates earlier reads, and it increments Generation so holders can
// detect that.
//
// # Backing Storage
//
// By default cells live on the Go heap. WithOffHeap moves them into anonymous
// memory mappings outside the garbage collector's view; mappings replaced by
// growth are retired and unmapped only on Close.
package heap
