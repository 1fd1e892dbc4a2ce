// Package resource governs the background work of paged record caches.
//
// A Controller may be shared by several caches (a collection shares one between
// its index and contents caches) and limits three things:
//
//   - Memory: bytes held by cached records (non-blocking, fail-fast)
//   - Concurrency: eviction passes running at the same time
//   - IO: bytes per second written by background flushes (token bucket)
//
// Memory tracking uses a weighted semaphore for the hard limit and an atomic
// counter for usage. AcquireMemory never blocks; a cache that is refused memory
// still admits the record but schedules an eviction pass:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes:   64 << 20,
//	    IOLimitBytesPerSec: 32 << 20,
//	})
//
//	if err := rc.AcquireIO(ctx, len(chunk)); err != nil {
//	    return err
//	}
//
// All methods handle a nil Controller gracefully - they become no-ops.
package resource
