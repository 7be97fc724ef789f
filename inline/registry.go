package inline

import (
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/hupe1980/cellheap/heap"
)

// Registry records the start address of every run written through it, so
// lookups can reject addresses that do not begin a run.
//
// A Registry owns the writes to its heap. Resetting the heap behind its back
// leaves stale entries; use Registry.Reset instead.
type Registry struct {
	h *heap.Heap

	mu     sync.RWMutex
	starts *roaring64.Bitmap
}

// NewRegistry creates an empty registry for h.
func NewRegistry(h *heap.Heap) *Registry {
	return &Registry{
		h:      h,
		starts: roaring64.New(),
	}
}

// Heap returns the heap the registry writes to.
func (r *Registry) Heap() *heap.Heap {
	return r.h
}

// Write is the registered form of the package-level Write.
func (r *Registry) Write(payload []byte) (heap.Addr, error) {
	return r.record(func() (heap.Addr, error) { return Write(r.h, payload) })
}

// WriteChecked is the registered form of the package-level WriteChecked.
func (r *Registry) WriteChecked(payload []byte) (heap.Addr, error) {
	return r.record(func() (heap.Addr, error) { return WriteChecked(r.h, payload) })
}

// WriteString is the registered form of the package-level WriteString.
func (r *Registry) WriteString(s string) (heap.Addr, error) {
	return r.record(func() (heap.Addr, error) { return WriteString(r.h, s) })
}

func (r *Registry) record(write func() (heap.Addr, error)) (heap.Addr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	addr, err := write()
	if err != nil {
		return 0, err
	}
	r.starts.Add(uint64(addr))
	return addr, nil
}

// Contains reports whether a run starts at addr.
func (r *Registry) Contains(addr heap.Addr) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.starts.Contains(uint64(addr))
}

// View returns a checked view of the run at addr.
func (r *Registry) View(addr heap.Addr) (View, error) {
	return r.ViewAt(addr, 0)
}

// ViewAt returns a checked view offset bytes into the run at addr.
// It fails with ErrNotARun for unknown addresses.
func (r *Registry) ViewAt(addr heap.Addr, offset int) (View, error) {
	if !r.Contains(addr) {
		return View{}, fmt.Errorf("%w: %d", ErrNotARun, addr)
	}
	return FromAddrOffsetChecked(r.h, addr, offset)
}

// Count returns the number of recorded runs.
func (r *Registry) Count() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.starts.GetCardinality()
}

// Addrs returns the recorded start addresses in ascending order.
func (r *Registry) Addrs() []heap.Addr {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]heap.Addr, 0, r.starts.GetCardinality())
	it := r.starts.Iterator()
	for it.HasNext() {
		out = append(out, heap.Addr(it.Next()))
	}
	return out
}

// All iterates over a copy of the recorded start addresses.
func (r *Registry) All() iter.Seq[heap.Addr] {
	r.mu.RLock()
	starts := r.starts.Clone()
	r.mu.RUnlock()

	return func(yield func(heap.Addr) bool) {
		it := starts.Iterator()
		for it.HasNext() {
			if !yield(heap.Addr(it.Next())) {
				return
			}
		}
	}
}

// Reset clears the registry and resets its heap.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.h.Reset()
	r.starts.Clear()
}

// Check verifies that every recorded address lies inside the committed heap.
func (r *Registry) Check() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.starts.IsEmpty() {
		return nil
	}
	if last := r.starts.Maximum(); last >= uint64(r.h.Len()) { //nolint:gosec // len is non-negative
		return fmt.Errorf("%w: %d past %d cells", ErrAddrOutOfRange, last, r.h.Len())
	}
	return nil
}

// SizeInBytes returns the serialized size of the registry.
func (r *Registry) SizeInBytes() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.starts.GetSerializedSizeInBytes()
}

// WriteTo serializes the recorded addresses.
func (r *Registry) WriteTo(w io.Writer) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.starts.WriteTo(w)
}

// ReadFrom replaces the recorded addresses with a serialized set.
func (r *Registry) ReadFrom(rd io.Reader) (int64, error) {
	starts := roaring64.New()
	n, err := starts.ReadFrom(rd)
	if err != nil {
		return n, fmt.Errorf("inline: read registry: %w", err)
	}

	r.mu.Lock()
	r.starts = starts
	r.mu.Unlock()
	return n, nil
}
