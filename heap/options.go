package heap

import "log/slog"

// DefaultInitialCells is the capacity a new heap starts with.
const DefaultInitialCells = 512

// MemoryAcquirer accounts for the memory a heap reserves.
// *resource.Controller implements it.
type MemoryAcquirer interface {
	AcquireMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

type options struct {
	initialCells int
	maxCells     int
	offHeap      bool
	acquirer     MemoryAcquirer
	logger       *slog.Logger
}

// Option configures a Heap.
type Option func(*options)

// WithInitialCells sets the initial capacity in cells.
// Zero defers allocation until the first reservation.
func WithInitialCells(n int) Option {
	return func(o *options) {
		o.initialCells = n
	}
}

// WithMaxCells caps the heap's capacity. Reservations beyond it fail with
// ErrMaxCellsExceeded. Zero means unlimited.
func WithMaxCells(n int) Option {
	return func(o *options) {
		o.maxCells = n
	}
}

// WithOffHeap stores cells in anonymous memory mappings instead of the Go heap.
func WithOffHeap() Option {
	return func(o *options) {
		o.offHeap = true
	}
}

// WithMemoryAcquirer charges every growth against a.
func WithMemoryAcquirer(a MemoryAcquirer) Option {
	return func(o *options) {
		o.acquirer = a
	}
}

// WithLogger sets the logger used for growth and lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
