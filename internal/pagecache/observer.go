package pagecache

import "time"

// Observer receives notifications about background cache activity.
// Implementations must be safe for concurrent use.
type Observer interface {
	// OnFlush is called after a batch of queued records was written.
	OnFlush(records, chunks int, bytes int64, d time.Duration, err error)
	// OnEvict is called after an eviction pass.
	OnEvict(evicted, minUsageToKeep int)
	// OnBackpressure is called when a producer found the queue full.
	OnBackpressure()
}

// NoopObserver ignores all notifications.
type NoopObserver struct{}

func (NoopObserver) OnFlush(int, int, int64, time.Duration, error) {}
func (NoopObserver) OnEvict(int, int)                              {}
func (NoopObserver) OnBackpressure()                               {}
