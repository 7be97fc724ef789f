package heap

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/hupe1980/cellheap/internal/conv"
	"github.com/hupe1980/cellheap/internal/mmap"
)

// Stats is a point-in-time view of heap usage.
type Stats struct {
	Cells         int    // committed cells
	Capacity      int    // reserved cells
	BytesReserved int64  // bytes charged to the memory acquirer
	Grows         uint64 // historical: capacity increases
	Resets        uint64 // historical: Reset calls
	Generation    uint64
	OffHeap       bool
}

// Heap is an append-only, growable cell arena.
//
// Readers may run concurrently with each other; writers are serialized by
// Update and exclude readers only for the duration of the callback.
type Heap struct {
	mu    sync.RWMutex
	cells []Cell // len = committed, cap = reserved

	backing *mmap.Mapping   // current mapping when off-heap
	retired []*mmap.Mapping // replaced mappings, still referenced by old slices

	maxCells int
	offHeap  bool
	acquirer MemoryAcquirer
	reserved int64
	logger   *slog.Logger
	closed   bool

	generation atomic.Uint64
	grows      atomic.Uint64
	resets     atomic.Uint64
}

// New creates a heap.
func New(opts ...Option) (*Heap, error) {
	o := options{
		initialCells: DefaultInitialCells,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&o)
	}

	h := &Heap{
		maxCells: o.maxCells,
		offHeap:  o.offHeap,
		acquirer: o.acquirer,
		logger:   o.logger,
	}
	// Generation 0 is never handed out so the zero View is always stale.
	h.generation.Store(1)

	if o.initialCells > 0 {
		initial := o.initialCells
		if h.maxCells > 0 {
			initial = min(initial, h.maxCells)
		}
		if err := h.growLocked(initial); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Len returns the number of committed cells.
func (h *Heap) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.cells)
}

// Cap returns the number of reserved cells.
func (h *Heap) Cap() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return cap(h.cells)
}

// Generation identifies the current contents epoch. It changes on Reset and
// Close, never on growth.
func (h *Heap) Generation() uint64 {
	return h.generation.Load()
}

// Bytes returns the committed cells as bytes. The slice is borrowed: it must
// not be modified, and its contents are only meaningful while Generation is
// unchanged. It returns nil once the heap is closed.
func (h *Heap) Bytes() []byte {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil
	}
	b := AsBytes(h.cells)
	return b[:len(b):len(b)]
}

// Committed returns Bytes together with the generation it belongs to, read
// under one lock so a concurrent Reset cannot fall between the two.
func (h *Heap) Committed() ([]byte, uint64) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	gen := h.generation.Load()
	if h.closed {
		return nil, gen
	}
	b := AsBytes(h.cells)
	return b[:len(b):len(b)], gen
}

// Cells returns the committed cells. Same borrowing rules as Bytes.
func (h *Heap) Cells() []Cell {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return nil
	}
	return h.cells[:len(h.cells):len(h.cells)]
}

// Closed reports whether Close has been called.
func (h *Heap) Closed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

// Update runs fn with exclusive access to the heap tail.
//
// If fn returns an error, cells committed during the call are rolled back.
func (h *Heap) Update(fn func(t *Tail) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}

	start := len(h.cells)
	if err := fn(&Tail{h: h}); err != nil {
		h.cells = h.cells[:start]
		return err
	}
	return nil
}

// Reset drops every committed cell and keeps the capacity.
// Views and slices obtained before Reset must not be used afterwards;
// the generation change lets checked readers detect them.
func (h *Heap) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	dropped := len(h.cells)
	h.cells = h.cells[:0]
	h.generation.Add(1)
	h.resets.Add(1)

	h.logger.Debug("heap reset",
		"dropped_cells", dropped,
		"generation", h.generation.Load(),
	)
}

// Close releases the heap's memory. It is idempotent.
func (h *Heap) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	h.generation.Add(1)
	h.cells = nil

	var errs []error
	for _, m := range h.retired {
		errs = append(errs, m.Close())
	}
	h.retired = nil
	if h.backing != nil {
		errs = append(errs, h.backing.Close())
		h.backing = nil
	}

	if h.acquirer != nil && h.reserved > 0 {
		h.acquirer.ReleaseMemory(h.reserved)
	}
	h.reserved = 0

	h.logger.Debug("heap closed")
	return errors.Join(errs...)
}

// Stats returns the current heap statistics.
func (h *Heap) Stats() Stats {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return Stats{
		Cells:         len(h.cells),
		Capacity:      cap(h.cells),
		BytesReserved: h.reserved,
		Grows:         h.grows.Load(),
		Resets:        h.resets.Load(),
		Generation:    h.generation.Load(),
		OffHeap:       h.offHeap,
	}
}

func (h *Heap) String() string {
	s := h.Stats()
	usage := 0.0
	if s.Capacity > 0 {
		usage = float64(s.Cells) / float64(s.Capacity) * 100
	}
	return fmt.Sprintf(
		"Heap{cells: %d, capacity: %d, reserved: %.2f KB, usage: %.1f%%, grows: %d, generation: %d}",
		s.Cells,
		s.Capacity,
		float64(s.BytesReserved)/1024,
		usage,
		s.Grows,
		s.Generation,
	)
}

// growLocked raises capacity to at least minCap cells. Caller holds mu or
// owns h exclusively.
func (h *Heap) growLocked(minCap int) error {
	oldCap := cap(h.cells)
	if minCap <= oldCap {
		return nil
	}
	if h.maxCells > 0 && minCap > h.maxCells {
		return fmt.Errorf("%w: need %d cells, max %d", ErrMaxCellsExceeded, minCap, h.maxCells)
	}

	newCap := minCap
	if oldCap <= math.MaxInt/2 {
		newCap = max(newCap, oldCap*2)
	}
	if h.maxCells > 0 {
		newCap = min(newCap, h.maxCells)
	}

	newBytes, err := conv.MulInt(newCap, Width)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidReserve, err)
	}

	// Off-heap mappings are retired rather than freed, so every mapping is
	// charged in full. On the Go heap only the delta is.
	charge := int64(newBytes)
	if !h.offHeap {
		charge -= int64(oldCap * Width)
	}
	if h.acquirer != nil {
		if err := h.acquirer.AcquireMemory(charge); err != nil {
			return err
		}
	}

	var (
		cells   []Cell
		mapping *mmap.Mapping
	)
	if h.offHeap {
		mapping, err = mmap.MapAnon(newBytes)
		if err != nil {
			if h.acquirer != nil {
				h.acquirer.ReleaseMemory(charge)
			}
			return fmt.Errorf("heap: map %d bytes: %w", newBytes, err)
		}
		data := mapping.Bytes()
		cells = unsafe.Slice((*Cell)(unsafe.Pointer(unsafe.SliceData(data))), newCap)[:len(h.cells)] //nolint:gosec // page-aligned mapping
	} else {
		cells = make([]Cell, len(h.cells), newCap)
	}
	copy(cells, h.cells)

	if h.backing != nil {
		h.retired = append(h.retired, h.backing)
	}
	h.backing = mapping
	h.cells = cells
	h.reserved += charge
	h.grows.Add(1)

	h.logger.Debug("heap grown",
		"old_capacity", oldCap,
		"new_capacity", newCap,
		"cells", len(cells),
		"off_heap", h.offHeap,
	)
	return nil
}

// Tail is the writer's handle on the uncommitted end of a heap. It is only
// valid inside the Update callback that received it.
type Tail struct {
	h *Heap
}

// Len returns the number of committed cells.
func (t *Tail) Len() int {
	return len(t.h.cells)
}

// Reserve ensures room for n more cells past Len. It does not change Len and
// may move the backing storage.
func (t *Tail) Reserve(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d cells", ErrInvalidReserve, n)
	}
	cur := len(t.h.cells)
	if n > math.MaxInt-cur {
		return fmt.Errorf("%w: %d cells past %d", ErrInvalidReserve, n, cur)
	}
	if err := t.h.growLocked(cur + n); err != nil {
		return fmt.Errorf("heap: reserve %d cells: %w", n, err)
	}
	return nil
}

// Spare returns the reserved but uncommitted cells. Their contents are
// unspecified; callers overwrite what they commit.
func (t *Tail) Spare() []Cell {
	c := t.h.cells
	return c[len(c):cap(c)]
}

// Commit extends the committed length to newLen. It panics if newLen is below
// Len (the heap is append-only) or above the reserved capacity.
func (t *Tail) Commit(newLen int) {
	c := t.h.cells
	if newLen < len(c) {
		panic(fmt.Sprintf("heap: commit %d below length %d", newLen, len(c)))
	}
	if newLen > cap(c) {
		panic(fmt.Sprintf("heap: commit %d beyond capacity %d", newLen, cap(c)))
	}
	t.h.cells = c[:newLen]
}
