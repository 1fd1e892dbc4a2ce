package diskset

import (
	"sync/atomic"
	"time"

	"github.com/hupe1980/diskset/internal/pagecache"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    addCounter     prometheus.Counter
//	    flushHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordAdd(duration time.Duration, err error) {
//	    p.addCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordAdd is called after each add operation.
	// duration is the total time taken, err is nil if successful.
	RecordAdd(duration time.Duration, err error)

	// RecordContains is called after each membership lookup.
	RecordContains(found bool, duration time.Duration, err error)

	// RecordRemove is called after each remove operation.
	RecordRemove(found bool, duration time.Duration, err error)

	// RecordClear is called after each clear operation.
	RecordClear(duration time.Duration, err error)

	// RecordFlush is called after a cache wrote a batch of records.
	// file is "index" or "contents".
	RecordFlush(file string, records, chunks int, bytes int64, duration time.Duration, err error)

	// RecordEviction is called after a cache eviction pass.
	RecordEviction(file string, evicted, minUsageToKeep int)

	// RecordBackpressure is called when a write found the queue full.
	RecordBackpressure(file string)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration, error)                            {}
func (NoopMetricsCollector) RecordContains(bool, time.Duration, error)                 {}
func (NoopMetricsCollector) RecordRemove(bool, time.Duration, error)                   {}
func (NoopMetricsCollector) RecordClear(time.Duration, error)                          {}
func (NoopMetricsCollector) RecordFlush(string, int, int, int64, time.Duration, error) {}
func (NoopMetricsCollector) RecordEviction(string, int, int)                           {}
func (NoopMetricsCollector) RecordBackpressure(string)                                 {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount         atomic.Int64
	AddErrors        atomic.Int64
	AddTotalNanos    atomic.Int64
	ContainsCount    atomic.Int64
	ContainsHits     atomic.Int64
	ContainsErrors   atomic.Int64
	RemoveCount      atomic.Int64
	RemoveFound      atomic.Int64
	RemoveErrors     atomic.Int64
	ClearCount       atomic.Int64
	FlushCount       atomic.Int64
	FlushErrors      atomic.Int64
	FlushedRecords   atomic.Int64
	FlushedChunks    atomic.Int64
	FlushedBytes     atomic.Int64
	EvictionPasses   atomic.Int64
	EvictedRecords   atomic.Int64
	BackpressureHits atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(duration time.Duration, err error) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordContains implements MetricsCollector.
func (b *BasicMetricsCollector) RecordContains(found bool, duration time.Duration, err error) {
	b.ContainsCount.Add(1)
	if found {
		b.ContainsHits.Add(1)
	}
	if err != nil {
		b.ContainsErrors.Add(1)
	}
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(found bool, duration time.Duration, err error) {
	b.RemoveCount.Add(1)
	if found {
		b.RemoveFound.Add(1)
	}
	if err != nil {
		b.RemoveErrors.Add(1)
	}
}

// RecordClear implements MetricsCollector.
func (b *BasicMetricsCollector) RecordClear(duration time.Duration, err error) {
	b.ClearCount.Add(1)
}

// RecordFlush implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFlush(file string, records, chunks int, bytes int64, duration time.Duration, err error) {
	b.FlushCount.Add(1)
	if err != nil {
		b.FlushErrors.Add(1)
		return
	}
	b.FlushedRecords.Add(int64(records))
	b.FlushedChunks.Add(int64(chunks))
	b.FlushedBytes.Add(bytes)
}

// RecordEviction implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEviction(file string, evicted, minUsageToKeep int) {
	b.EvictionPasses.Add(1)
	b.EvictedRecords.Add(int64(evicted))
}

// RecordBackpressure implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBackpressure(file string) {
	b.BackpressureHits.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:         b.AddCount.Load(),
		AddErrors:        b.AddErrors.Load(),
		AddAvgNanos:      b.getAvgAddNanos(),
		ContainsCount:    b.ContainsCount.Load(),
		ContainsHits:     b.ContainsHits.Load(),
		ContainsErrors:   b.ContainsErrors.Load(),
		RemoveCount:      b.RemoveCount.Load(),
		RemoveFound:      b.RemoveFound.Load(),
		RemoveErrors:     b.RemoveErrors.Load(),
		ClearCount:       b.ClearCount.Load(),
		FlushCount:       b.FlushCount.Load(),
		FlushErrors:      b.FlushErrors.Load(),
		FlushedRecords:   b.FlushedRecords.Load(),
		FlushedChunks:    b.FlushedChunks.Load(),
		FlushedBytes:     b.FlushedBytes.Load(),
		EvictionPasses:   b.EvictionPasses.Load(),
		EvictedRecords:   b.EvictedRecords.Load(),
		BackpressureHits: b.BackpressureHits.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgAddNanos() int64 {
	count := b.AddCount.Load()
	if count == 0 {
		return 0
	}
	return b.AddTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount         int64
	AddErrors        int64
	AddAvgNanos      int64
	ContainsCount    int64
	ContainsHits     int64
	ContainsErrors   int64
	RemoveCount      int64
	RemoveFound      int64
	RemoveErrors     int64
	ClearCount       int64
	FlushCount       int64
	FlushErrors      int64
	FlushedRecords   int64
	FlushedChunks    int64
	FlushedBytes     int64
	EvictionPasses   int64
	EvictedRecords   int64
	BackpressureHits int64
}

// cacheObserver forwards page cache events of one file to a MetricsCollector.
type cacheObserver struct {
	file    string
	metrics MetricsCollector
}

var _ pagecache.Observer = cacheObserver{}

func (o cacheObserver) OnFlush(records, chunks int, bytes int64, d time.Duration, err error) {
	o.metrics.RecordFlush(o.file, records, chunks, bytes, d, err)
}

func (o cacheObserver) OnEvict(evicted, minUsageToKeep int) {
	o.metrics.RecordEviction(o.file, evicted, minUsageToKeep)
}

func (o cacheObserver) OnBackpressure() {
	o.metrics.RecordBackpressure(o.file)
}
