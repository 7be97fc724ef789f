package cellheap

import (
	"log/slog"

	"github.com/hupe1980/cellheap/blobstore"
	"github.com/hupe1980/cellheap/heap"
	"github.com/hupe1980/cellheap/resource"
	"github.com/hupe1980/cellheap/snapshot"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	store            blobstore.BlobStore
	rc               *resource.Controller
	compression      snapshot.Compression
	initialCells     int
	maxCells         int
	offHeap          bool
}

// Option configures an Engine.
type Option func(*options)

// WithMetricsCollector sets the metrics collector.
//
// If nil is passed, metrics are discarded.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger sets the structured logger.
//
// If nil is passed, logging is disabled.
//
// Example:
//
//	logger := cellheap.NewJSONLogger(slog.LevelDebug)
//	eng, _ := cellheap.New(cellheap.WithLogger(logger))
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithLogLevel installs a text logger on stderr at the given level.
// Shorthand for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithBlobStore sets the store used by Snapshot and Restore.
func WithBlobStore(s blobstore.BlobStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithResourceController charges heap memory against rc, bounds concurrent
// snapshots by its background slots and throttles image IO.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithInitialCells sets the number of cells reserved up front.
func WithInitialCells(n int) Option {
	return func(o *options) {
		o.initialCells = n
	}
}

// WithMaxCells caps the heap size. Zero means unlimited.
func WithMaxCells(n int) Option {
	return func(o *options) {
		o.maxCells = n
	}
}

// WithOffHeap backs the heap with anonymous memory maps instead of Go memory.
func WithOffHeap() Option {
	return func(o *options) {
		o.offHeap = true
	}
}

// WithCompression sets the body compression used for snapshots.
// The default is LZ4.
func WithCompression(c snapshot.Compression) Option {
	return func(o *options) {
		o.compression = c
	}
}

func applyOptions(opts []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		compression:      snapshot.CompressionLZ4,
		initialCells:     heap.DefaultInitialCells,
	}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (o options) heapOptions() []heap.Option {
	hopts := []heap.Option{
		heap.WithInitialCells(o.initialCells),
		heap.WithMaxCells(o.maxCells),
		heap.WithLogger(o.logger.Logger),
	}
	if o.offHeap {
		hopts = append(hopts, heap.WithOffHeap())
	}
	if o.rc != nil {
		hopts = append(hopts, heap.WithMemoryAcquirer(o.rc))
	}
	return hopts
}
