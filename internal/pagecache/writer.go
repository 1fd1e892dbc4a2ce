package pagecache

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
)

// run is the background writer. It batches queued records for the flush
// delay, then writes them in position order.
func (c *Cache[E]) run() {
	defer close(c.done)

	for {
		select {
		case <-c.stopCh:
			c.finalFlush()
			return
		case <-c.cleanCh:
			c.tryClean()
		case <-c.wake:
			c.flushMu.Lock()
			c.held = c.drain(c.held)
			n := len(c.held)
			c.flushMu.Unlock()
			if n == 0 {
				continue
			}

			if !c.sleep() {
				c.finalFlush()
				return
			}
			if err := c.forceWrite(); err != nil {
				// Terminal; fail already recorded the cause.
				return
			}
			if c.overThreshold() {
				c.clean()
			}
		}
	}
}

// sleep waits for the flush delay. It reports false when the cache is closing.
func (c *Cache[E]) sleep() bool {
	if c.opts.flushDelay <= 0 {
		return true
	}
	t := time.NewTimer(c.opts.flushDelay)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-c.stopCh:
		return false
	}
}

func (c *Cache[E]) finalFlush() {
	if err := c.forceWrite(); err != nil {
		c.log.Warn("final flush failed", "error", err)
	}
}

// drain moves every queued record into batch. Callers hold flushMu.
func (c *Cache[E]) drain(batch []*record[E]) []*record[E] {
	for {
		select {
		case rec := <-c.queue:
			batch = append(batch, rec)
		default:
			return batch
		}
	}
}

// forceWrite synchronously writes everything held or queued.
func (c *Cache[E]) forceWrite() error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	if err := c.err(); err != nil {
		return err
	}

	batch := c.drain(c.held)
	c.held = nil
	return c.writeBatch(batch)
}

// writeBatch coalesces batch into contiguous chunks and writes them.
// Records from before the last Clear are dropped. Callers hold flushMu.
func (c *Cache[E]) writeBatch(batch []*record[E]) error {
	gen := c.gen.Load()
	live := make([]*record[E], 0, len(batch))
	for _, rec := range batch {
		if rec.gen == gen {
			live = append(live, rec)
		}
	}
	if len(live) == 0 {
		return nil
	}

	start := time.Now()
	chunks := coalesce(live)

	var total int64
	for _, ch := range chunks {
		if err := c.opts.rc.AcquireIO(context.Background(), len(ch.buf)); err != nil {
			c.log.Warn("io limiter wait failed", "error", err)
		}

		c.fileMu.Lock()
		_, err := c.file.WriteAt(ch.buf, ch.pos)
		c.fileMu.Unlock()

		if err != nil {
			ioErr := &IOError{Op: "write", Path: c.file.Name(), Offset: ch.pos, Err: err}
			c.fail(ioErr)
			c.opts.observer.OnFlush(len(live), len(chunks), total, time.Since(start), ioErr)
			return c.err()
		}
		total += int64(len(ch.buf))
	}

	for _, rec := range live {
		rec.unwritten.Store(false)
	}

	c.flushes.Add(1)
	c.chunks.Add(int64(len(chunks)))
	c.recordsWritten.Add(int64(len(live)))
	c.written.Add(total)

	d := time.Since(start)
	c.opts.observer.OnFlush(len(live), len(chunks), total, d, nil)
	c.log.Debug("flushed records",
		"records", len(live),
		"chunks", len(chunks),
		"bytes", humanize.Bytes(uint64(total)),
		"duration", d,
	)
	return nil
}
