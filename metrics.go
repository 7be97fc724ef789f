package cellheap

import (
	"sync/atomic"
	"time"
)

// MetricsCollector receives operational metrics from an Engine.
// Implement it to feed a monitoring system such as Prometheus.
type MetricsCollector interface {
	// RecordInline is called after each run write with the payload size.
	RecordInline(size int, duration time.Duration, err error)

	// RecordRead is called after each checked text or byte read.
	RecordRead(duration time.Duration, err error)

	// RecordSnapshot is called after each snapshot with the image size.
	RecordSnapshot(bytes int64, duration time.Duration, err error)

	// RecordRestore is called after each restore.
	RecordRestore(duration time.Duration, err error)
}

// NoopMetricsCollector discards all metrics.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordInline(int, time.Duration, error)     {}
func (NoopMetricsCollector) RecordRead(time.Duration, error)            {}
func (NoopMetricsCollector) RecordSnapshot(int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordRestore(time.Duration, error)         {}

// BasicMetricsCollector keeps counters in memory.
type BasicMetricsCollector struct {
	InlineCount      atomic.Int64
	InlineErrors     atomic.Int64
	InlineBytes      atomic.Int64
	InlineTotalNanos atomic.Int64
	ReadCount        atomic.Int64
	ReadErrors       atomic.Int64
	SnapshotCount    atomic.Int64
	SnapshotErrors   atomic.Int64
	SnapshotBytes    atomic.Int64
	RestoreCount     atomic.Int64
	RestoreErrors    atomic.Int64
}

// RecordInline implements MetricsCollector.
func (b *BasicMetricsCollector) RecordInline(size int, duration time.Duration, err error) {
	b.InlineCount.Add(1)
	b.InlineTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.InlineErrors.Add(1)
		return
	}
	b.InlineBytes.Add(int64(size))
}

// RecordRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRead(_ time.Duration, err error) {
	b.ReadCount.Add(1)
	if err != nil {
		b.ReadErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(bytes int64, _ time.Duration, err error) {
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
		return
	}
	b.SnapshotBytes.Add(bytes)
}

// RecordRestore implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRestore(_ time.Duration, err error) {
	b.RestoreCount.Add(1)
	if err != nil {
		b.RestoreErrors.Add(1)
	}
}

// GetStats returns a snapshot of the counters.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		InlineCount:    b.InlineCount.Load(),
		InlineErrors:   b.InlineErrors.Load(),
		InlineBytes:    b.InlineBytes.Load(),
		InlineAvgNanos: b.avgInlineNanos(),
		ReadCount:      b.ReadCount.Load(),
		ReadErrors:     b.ReadErrors.Load(),
		SnapshotCount:  b.SnapshotCount.Load(),
		SnapshotErrors: b.SnapshotErrors.Load(),
		SnapshotBytes:  b.SnapshotBytes.Load(),
		RestoreCount:   b.RestoreCount.Load(),
		RestoreErrors:  b.RestoreErrors.Load(),
	}
}

func (b *BasicMetricsCollector) avgInlineNanos() int64 {
	count := b.InlineCount.Load()
	if count == 0 {
		return 0
	}
	return b.InlineTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector.
type BasicMetricsStats struct {
	InlineCount    int64
	InlineErrors   int64
	InlineBytes    int64
	InlineAvgNanos int64
	ReadCount      int64
	ReadErrors     int64
	SnapshotCount  int64
	SnapshotErrors int64
	SnapshotBytes  int64
	RestoreCount   int64
	RestoreErrors  int64
}
