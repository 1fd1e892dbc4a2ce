package diskset

import "github.com/hupe1980/diskset/internal/pagecache"

// CacheStats is a snapshot of one page cache's counters.
type CacheStats = pagecache.Stats

// Stats is a snapshot of a collection's state.
type Stats struct {
	// ID identifies the collection in logs and backing file names.
	ID   string
	Size int

	// FreeSlots is the number of index slots released by removals and not
	// yet reused.
	FreeSlots uint64
	// DeadValues is the number of values in the contents file that are no
	// longer referenced. The contents file is only compacted by Clear or by
	// removing the last value.
	DeadValues int64

	// MemoryUsage is the number of serialized bytes held by both caches.
	MemoryUsage int64
	// MemoryLimit is the configured bound on MemoryUsage, 0 if unlimited.
	MemoryLimit int64

	Index    CacheStats
	Contents CacheStats
}

// Stats returns a snapshot of the collection's state.
func (c *Collection[T]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Stats{
		ID:          c.id,
		Size:        c.tree.Len(),
		FreeSlots:   c.tree.FreeSlots(),
		DeadValues:  c.tree.DeadValues(),
		MemoryUsage: c.rc.MemoryUsage(),
		MemoryLimit: c.rc.MemoryLimit(),
		Index:       c.index.Stats(),
		Contents:    c.contents.Stats(),
	}
}
