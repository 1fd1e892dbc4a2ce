// Package pagecache implements a write-back, usage-aware cache over one
// random-access file of serialized records.
//
// Reads are served from a 64-way sharded map and fall through to the file on a
// miss. Writes are acknowledged immediately: the record is cached as unwritten
// and queued for a single background writer per cache, which waits a short
// batching delay, sorts the queued records by position and coalesces byte-
// contiguous records into one WriteAt call.
//
// # Eviction
//
// Once the cache holds 75% of its configured size, written records whose usage
// count is below an adaptive threshold are evicted. The threshold starts at 2
// and rises when a pass frees less than 10% of the cache, falling back towards
// 2 otherwise. While the cache is still over 75% after a pass, further passes
// halve the usage counts of the remaining written records, so a cleaning run
// ends below the bound. Unwritten records are never evicted.
//
// # Backpressure
//
// The pending-write queue is bounded. A producer that finds it full flushes
// the whole queue synchronously before blocking on the enqueue.
//
// # Failure
//
// A background write failure is terminal: it is logged, later writes fail with
// ErrWriterFailed, and Close reports it. Close drains and flushes the queue
// before stopping the writer.
package pagecache
