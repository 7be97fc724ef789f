package cellheap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/cellheap/blobstore"
	"github.com/hupe1980/cellheap/heap"
	"github.com/hupe1980/cellheap/inline"
	"github.com/hupe1980/cellheap/resource"
	"github.com/hupe1980/cellheap/snapshot"
)

// Engine owns a heap and the registry of runs written to it.
//
// Writes and reads may run concurrently. Reset and Restore replace the heap
// contents and wait for in-flight operations to finish.
type Engine struct {
	mu     sync.RWMutex
	heap   *heap.Heap
	runs   *inline.Registry
	closed bool

	opts options
}

// Stats describes an Engine at a point in time.
type Stats struct {
	Heap        heap.Stats
	Runs        uint64
	IndexBytes  uint64 // serialized size of the run index
	MemoryUsage int64  // bytes charged to the resource controller, 0 without one
}

// New creates an Engine with an empty heap.
func New(opts ...Option) (*Engine, error) {
	o := applyOptions(opts)

	h, err := heap.New(o.heapOptions()...)
	if err != nil {
		return nil, fmt.Errorf("cellheap: create heap: %w", err)
	}

	o.logger.Debug("engine created",
		"initial_cells", o.initialCells,
		"max_cells", o.maxCells,
		"off_heap", o.offHeap,
		"compression", o.compression.String(),
	)

	return &Engine{
		heap: h,
		runs: inline.NewRegistry(h),
		opts: o,
	}, nil
}

// InlineBytes writes payload as a run and returns its start address.
// Payloads containing 0x00 are rejected with *inline.EmbeddedZeroError.
func (e *Engine) InlineBytes(payload []byte) (heap.Addr, error) {
	return e.inline(len(payload), func(r *inline.Registry) (heap.Addr, error) {
		return r.WriteChecked(payload)
	})
}

// InlineString is InlineBytes for a string.
func (e *Engine) InlineString(s string) (heap.Addr, error) {
	return e.inline(len(s), func(r *inline.Registry) (heap.Addr, error) {
		return r.WriteString(s)
	})
}

// InlineBytesUnchecked writes payload without scanning it for 0x00. An
// embedded zero truncates what reads return.
func (e *Engine) InlineBytesUnchecked(payload []byte) (heap.Addr, error) {
	return e.inline(len(payload), func(r *inline.Registry) (heap.Addr, error) {
		return r.Write(payload)
	})
}

func (e *Engine) inline(size int, write func(*inline.Registry) (heap.Addr, error)) (heap.Addr, error) {
	start := time.Now()

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, ErrClosed
	}

	addr, err := write(e.runs)
	err = translateError(err)

	e.opts.metricsCollector.RecordInline(size, time.Since(start), err)
	e.opts.logger.LogInline(addr, size, err)
	return addr, err
}

// View returns a checked view of the run starting at addr.
func (e *Engine) View(addr heap.Addr) (inline.View, error) {
	return e.ViewAt(addr, 0)
}

// ViewAt returns a checked view offset bytes into the run starting at addr.
// Unknown addresses fail with inline.ErrNotARun, offsets past the run with
// *inline.OffsetError.
func (e *Engine) ViewAt(addr heap.Addr, offset int) (inline.View, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return inline.View{}, ErrClosed
	}
	return e.runs.ViewAt(addr, offset)
}

// Text returns a copy of the run at addr, validated as UTF-8.
func (e *Engine) Text(addr heap.Addr) (string, error) {
	start := time.Now()

	s, err := read(e, addr, func(v inline.View) (string, error) {
		s, err := v.Text()
		if err != nil {
			return "", err
		}
		return strings.Clone(s), nil
	})

	e.opts.metricsCollector.RecordRead(time.Since(start), err)
	return s, err
}

// Bytes returns a copy of the run at addr.
func (e *Engine) Bytes(addr heap.Addr) ([]byte, error) {
	start := time.Now()

	b, err := read(e, addr, func(v inline.View) ([]byte, error) {
		if err := v.Valid(); err != nil {
			return nil, err
		}
		return bytes.Clone(v.Bytes()), nil
	})

	e.opts.metricsCollector.RecordRead(time.Since(start), err)
	return b, err
}

func read[T any](e *Engine, addr heap.Addr, fn func(inline.View) (T, error)) (T, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var zero T
	if e.closed {
		return zero, ErrClosed
	}
	v, err := e.runs.View(addr)
	if err != nil {
		return zero, err
	}
	return fn(v)
}

// Snapshot writes a heap image named name to the configured BlobStore and
// returns its size. Concurrent writes are allowed; the image contains every
// run committed before it started. The engine lock is held only while the
// image is encoded, not during the upload.
func (e *Engine) Snapshot(ctx context.Context, name string) (n int64, err error) {
	start := time.Now()
	cells := 0
	defer func() {
		e.opts.metricsCollector.RecordSnapshot(n, time.Since(start), err)
		e.opts.logger.LogSnapshot(ctx, name, n, cells, err)
	}()

	if e.opts.store == nil {
		return 0, ErrNoBlobStore
	}

	if err := e.opts.rc.AcquireBackground(ctx); err != nil {
		return 0, err
	}
	defer e.opts.rc.ReleaseBackground()

	var image bytes.Buffer
	cells, err = e.encode(ctx, &image)
	if err != nil {
		return 0, err
	}

	w, err := e.opts.store.Create(ctx, name)
	if err != nil {
		return 0, translateError(err)
	}

	n, err = io.Copy(resource.NewRateLimitedWriter(ctx, w, e.opts.rc), &image)
	if err == nil {
		err = w.Sync()
	}
	if err != nil {
		_ = blobstore.Abort(w)
		return 0, fmt.Errorf("cellheap: upload %s: %w", name, translateError(err))
	}
	if err := w.Close(); err != nil {
		return 0, translateError(err)
	}

	return n, nil
}

// encode writes the current heap image to buf under the read lock.
func (e *Engine) encode(ctx context.Context, buf *bytes.Buffer) (int, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return 0, ErrClosed
	}

	cells := e.heap.Len()
	if _, err := snapshot.Write(ctx, buf, e.heap, e.runs,
		snapshot.WithCompression(e.opts.compression),
	); err != nil {
		return 0, translateError(err)
	}
	return cells, nil
}

// Restore replaces the engine contents with the heap image named name.
// Views obtained before Restore become stale. On error the engine is
// unchanged.
func (e *Engine) Restore(ctx context.Context, name string) (err error) {
	start := time.Now()
	var (
		cells int
		runs  uint64
	)
	defer func() {
		e.opts.metricsCollector.RecordRestore(time.Since(start), err)
		e.opts.logger.LogRestore(ctx, name, cells, runs, err)
	}()

	if e.opts.store == nil {
		return ErrNoBlobStore
	}
	if e.isClosed() {
		return ErrClosed
	}

	if err := e.opts.rc.AcquireBackground(ctx); err != nil {
		return err
	}
	defer e.opts.rc.ReleaseBackground()

	blob, err := e.opts.store.Open(ctx, name)
	if err != nil {
		return translateError(err)
	}
	defer blob.Close()

	hopts := e.opts.heapOptions()
	// The image reserves exactly what it needs.
	hopts = append(hopts, heap.WithInitialCells(0))
	h, err := heap.New(hopts...)
	if err != nil {
		return fmt.Errorf("cellheap: create heap: %w", err)
	}
	reg := inline.NewRegistry(h)

	if err := snapshot.Read(ctx, blobstore.NewReader(ctx, blob), h, reg,
		snapshot.WithController(e.opts.rc),
	); err != nil {
		_ = h.Close()
		return translateError(err)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		_ = h.Close()
		return ErrClosed
	}
	old := e.heap
	e.heap, e.runs = h, reg
	e.mu.Unlock()

	cells, runs = h.Len(), reg.Count()
	return old.Close()
}

// Snapshots lists the heap images in the configured BlobStore whose names
// start with prefix.
func (e *Engine) Snapshots(ctx context.Context, prefix string) ([]string, error) {
	if e.opts.store == nil {
		return nil, ErrNoBlobStore
	}
	names, err := e.opts.store.List(ctx, prefix)
	return names, translateError(err)
}

// DeleteSnapshot removes a heap image from the configured BlobStore.
func (e *Engine) DeleteSnapshot(ctx context.Context, name string) error {
	if e.opts.store == nil {
		return ErrNoBlobStore
	}
	return translateError(e.opts.store.Delete(ctx, name))
}

// Reset drops every run. The heap keeps its capacity; views obtained before
// Reset report inline.ErrStaleView.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	cells, runs := e.heap.Len(), e.runs.Count()
	e.runs.Reset()
	e.opts.logger.LogReset(cells, runs)
	return nil
}

// Stats returns current usage figures.
func (e *Engine) Stats() (Stats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.closed {
		return Stats{}, ErrClosed
	}
	return Stats{
		Heap:        e.heap.Stats(),
		Runs:        e.runs.Count(),
		IndexBytes:  e.runs.SizeInBytes(),
		MemoryUsage: e.opts.rc.MemoryUsage(),
	}, nil
}

// Heap returns the current heap. It is replaced by Restore.
func (e *Engine) Heap() *heap.Heap {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.heap
}

// Runs returns the current run registry. It is replaced by Restore.
func (e *Engine) Runs() *inline.Registry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.runs
}

// Controller returns the resource controller, or nil.
func (e *Engine) Controller() *resource.Controller {
	return e.opts.rc
}

// Close releases the heap. Strings returned by Text and Bytes stay valid;
// views and unchecked reads do not. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true

	err := e.heap.Close()
	e.opts.logger.Debug("engine closed", "error", err)
	if err != nil {
		return fmt.Errorf("cellheap: close heap: %w", err)
	}
	return nil
}

func (e *Engine) isClosed() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.closed
}
