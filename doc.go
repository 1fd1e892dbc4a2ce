// Package diskset provides an ordered collection that keeps its elements on
// disk instead of the heap.
//
// A Collection is a balanced search tree (an AA tree) whose nodes live in an
// index file of fixed-size entries and whose values live in a second file of
// length-prefixed frames. Both files sit behind a write-back cache with a
// background writer that batches and coalesces writes, and an eviction pass
// that keeps frequently used records in memory.
//
// The backing files are temporary. They are created by New, removed by Close
// and never reopened, so nothing survives a restart.
//
// # Quick Start
//
//	set, _ := diskset.NewOrdered[string]()
//	defer set.Close()
//
//	set.Add("b")
//	set.Add("a")
//	ok, _ := set.Contains("a") // true
//
//	for v, err := range set.All() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(v) // a, b
//	}
//
// Custom orderings use New with a comparator:
//
//	byLen, _ := diskset.New(func(a, b string) int {
//	    return cmp.Compare(len(a), len(b))
//	})
//
// # Values
//
// Values are serialized with a codec.Codec (go-json by default) and may be
// compressed with LZ4 or ZSTD and protected by a HighwayHash checksum:
//
//	set, _ := diskset.NewOrdered[string](
//	    diskset.WithCompression(diskset.CompressionLZ4),
//	    diskset.WithChecksums(true),
//	)
//
// # Caching
//
// Each of the two files has its own cache. WithCacheSize sets the number of
// records a cache aims to hold; once it is 75% full, written records with a
// low usage count are evicted and read back from disk on demand. Writes are
// queued and persisted by a background goroutine after WithFlushDelay.
// Flush persists everything synchronously.
//
// # Errors
//
// Background write failures are terminal: the affected collection reports
// ErrWriterFailed from then on. Read and write failures are returned as
// *IOError.
package diskset
