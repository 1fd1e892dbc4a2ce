package pagecache

import "context"

// maxCleanRounds bounds the passes of one clean. Usage counts are halved on
// every follow-up pass, so an int32 count reaches zero well within it.
const maxCleanRounds = 33

// clean evicts written records until the cache is below its fill threshold
// or only unwritten records remain. It waits for a background slot.
func (c *Cache[E]) clean() {
	c.cleanMu.Lock()
	defer c.cleanMu.Unlock()

	if err := c.opts.rc.AcquireBackground(context.Background()); err != nil {
		return
	}
	defer c.opts.rc.ReleaseBackground()

	c.cleanLocked()
}

// tryClean is clean for the admission path: it gives up when another pass is
// running or all background slots are busy.
func (c *Cache[E]) tryClean() {
	if !c.cleanMu.TryLock() {
		return
	}
	defer c.cleanMu.Unlock()

	if !c.opts.rc.TryAcquireBackground() {
		return
	}
	defer c.opts.rc.ReleaseBackground()

	c.cleanLocked()
}

// cleanLocked runs eviction passes. The first pass evicts written records
// whose usage count is below the current threshold. While the cache is still
// over its fill threshold, each further pass first halves the usage count of
// every written record so that records on hot paths become evictable too.
// After each pass the threshold adapts: a pass that frees less than
// expectedShrinkPercentage of the cache raises it, any other pass lowers it
// back towards its initial value.
func (c *Cache[E]) cleanLocked() {
	for round := range maxCleanRounds {
		before := c.count.Load()
		threshold := c.minUsage.Load()

		evicted, kept := c.evictPass(threshold, round > 0)
		if evicted == 0 && kept == 0 {
			// Only unwritten records; the writer cleans again after flushing.
			return
		}

		after := before - evicted
		next := adjustThreshold(threshold, before, after)
		c.minUsage.Store(next)

		c.evicted.Add(evicted)
		c.opts.observer.OnEvict(int(evicted), int(next))
		c.log.Debug("evicted records",
			"round", round,
			"evicted", evicted,
			"remaining", after,
			"min_usage_to_keep", next,
		)

		if kept == 0 || !c.overThreshold() {
			return
		}
	}
}

// evictPass removes written records with a usage count below threshold and
// returns how many it evicted and how many written records it kept.
func (c *Cache[E]) evictPass(threshold int32, age bool) (evicted, kept int64) {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		var n int64
		for pos, rec := range s.items {
			if rec.unwritten.Load() {
				continue
			}
			u := rec.usage.Load()
			if age {
				u = rec.usage.Add(-(u - u/2))
			}
			if u >= threshold {
				kept++
				continue
			}
			delete(s.items, pos)
			c.release(rec)
			n++
		}
		c.count.Add(-n)
		s.mu.Unlock()
		evicted += n
	}
	return evicted, kept
}

func adjustThreshold(threshold int32, before, after int64) int32 {
	if after > before*(100-expectedShrinkPercentage)/100 {
		return threshold + 1
	}
	if threshold > initialMinUsageToKeep {
		return threshold - 1
	}
	return threshold
}
