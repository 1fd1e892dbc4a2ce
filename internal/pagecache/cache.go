package pagecache

import (
	"fmt"
	"hash/maphash"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/diskset/internal/fs"
	"github.com/hupe1980/diskset/internal/resource"
)

const (
	numShards = 64

	// cleanPercentage is the fill level, relative to the configured size,
	// at which eviction starts.
	cleanPercentage = 75
	// expectedShrinkPercentage is the minimum reduction a pass must achieve
	// for the usage threshold not to rise.
	expectedShrinkPercentage = 10

	initialMinUsageToKeep = 2

	DefaultSize       = 2000
	DefaultFlushDelay = 2 * time.Second
	DefaultQueueSize  = 1024
)

// Codec serializes records of type E.
type Codec[E any] interface {
	// Encode returns the serialized form of v.
	Encode(v E) ([]byte, error)
	// Decode reads the record stored at off.
	Decode(r io.ReaderAt, off int64) (E, error)
}

type options struct {
	name       string
	size       int
	flushDelay time.Duration
	queueSize  int
	logger     *slog.Logger
	rc         *resource.Controller
	observer   Observer
}

// Option configures a Cache.
type Option func(*options)

// WithName labels the cache in logs.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithSize sets the target number of cached records. The cache may exceed it
// temporarily until an eviction pass runs.
func WithSize(n int) Option {
	return func(o *options) { o.size = n }
}

// WithFlushDelay sets how long the writer waits for more records after the
// first one arrives.
func WithFlushDelay(d time.Duration) Option {
	return func(o *options) { o.flushDelay = d }
}

// WithQueueSize bounds the pending-write queue.
func WithQueueSize(n int) Option {
	return func(o *options) { o.queueSize = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithResourceController shares I/O, memory and background limits.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// WithObserver receives flush, eviction and backpressure notifications.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

type shard[E any] struct {
	mu    sync.RWMutex
	items map[int64]*record[E]
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Cached         int
	Length         int64
	Hits           int64
	Misses         int64
	Evicted        int64
	Flushes        int64
	Chunks         int64
	RecordsWritten int64
	BytesWritten   int64
	Backpressure   int64
	MinUsageToKeep int
}

// Cache is a write-back record cache over one backing file.
type Cache[E any] struct {
	file  fs.File
	codec Codec[E]
	opts  options
	log   *slog.Logger

	// fileMu serializes positional writes and truncation against reads.
	fileMu sync.RWMutex

	seed   maphash.Seed
	shards [numShards]shard[E]
	count  atomic.Int64

	lenMu  sync.Mutex
	length int64

	queue   chan *record[E]
	wake    chan struct{}
	cleanCh chan struct{}
	stopCh  chan struct{}
	done    chan struct{}
	closed  atomic.Bool

	// flushMu serializes flushes. held holds the records the writer moved
	// off the queue before its batching delay; both are only touched under
	// flushMu so a forced flush sees every pending record.
	flushMu sync.Mutex
	held    []*record[E]
	gen     atomic.Uint64

	cleanMu  sync.Mutex
	minUsage atomic.Int32

	errMu   sync.Mutex
	lastErr error
	failCh  chan struct{}

	hits, misses, evicted   atomic.Int64
	flushes, chunks         atomic.Int64
	recordsWritten, written atomic.Int64
	backpressure            atomic.Int64
}

// New creates a cache over f and starts its background writer.
func New[E any](f fs.File, codec Codec[E], optFns ...Option) (*Cache[E], error) {
	if f == nil {
		return nil, fmt.Errorf("%w: file is nil", ErrInvalidArgument)
	}
	if codec == nil {
		return nil, fmt.Errorf("%w: codec is nil", ErrInvalidArgument)
	}

	opts := options{
		size:       DefaultSize,
		flushDelay: DefaultFlushDelay,
		queueSize:  DefaultQueueSize,
		observer:   NoopObserver{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.size <= 0 {
		return nil, fmt.Errorf("%w: cache size must be positive, got %d", ErrInvalidArgument, opts.size)
	}
	if opts.queueSize <= 0 {
		return nil, fmt.Errorf("%w: queue size must be positive, got %d", ErrInvalidArgument, opts.queueSize)
	}
	if opts.flushDelay < 0 {
		opts.flushDelay = 0
	}
	if opts.logger == nil {
		opts.logger = slog.New(slog.DiscardHandler)
	}

	info, err := f.Stat()
	if err != nil {
		return nil, &IOError{Op: "stat", Path: f.Name(), Err: err}
	}

	c := &Cache[E]{
		file:    f,
		codec:   codec,
		opts:    opts,
		log:     opts.logger.With("cache", opts.name, "file", f.Name()),
		seed:    maphash.MakeSeed(),
		length:  info.Size(),
		queue:   make(chan *record[E], opts.queueSize),
		wake:    make(chan struct{}, 1),
		cleanCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
		failCh:  make(chan struct{}),
	}
	for i := range c.shards {
		c.shards[i].items = make(map[int64]*record[E])
	}
	c.minUsage.Store(initialMinUsageToKeep)

	go c.run()

	return c, nil
}

func (c *Cache[E]) shard(pos int64) *shard[E] {
	return &c.shards[maphash.Comparable(c.seed, pos)%numShards]
}

// Read returns the record stored at pos.
func (c *Cache[E]) Read(pos int64) (E, error) {
	var zero E
	if c.closed.Load() {
		return zero, ErrClosed
	}
	if pos < 0 {
		return zero, fmt.Errorf("%w: negative position %d", ErrInvalidArgument, pos)
	}

	s := c.shard(pos)
	s.mu.RLock()
	rec, ok := s.items[pos]
	s.mu.RUnlock()
	if ok {
		rec.usage.Add(1)
		c.hits.Add(1)
		return rec.value, nil
	}
	c.misses.Add(1)

	c.fileMu.RLock()
	v, err := c.codec.Decode(c.file, pos)
	c.fileMu.RUnlock()
	if err != nil {
		return zero, &IOError{Op: "read", Path: c.file.Name(), Offset: pos, Err: err}
	}

	// A concurrent write may have cached a fresher value meanwhile.
	c.admit(newRecord(v, pos, nil, 0), false)
	return v, nil
}

// Write caches v at pos and queues it for the background writer.
func (c *Cache[E]) Write(v E, pos int64) error {
	if err := c.usable(); err != nil {
		return err
	}
	if pos < 0 {
		return fmt.Errorf("%w: negative position %d", ErrInvalidArgument, pos)
	}
	b, err := c.codec.Encode(v)
	if err != nil {
		return &IOError{Op: "encode", Path: c.file.Name(), Offset: pos, Err: err}
	}
	return c.enqueue(newRecord(v, pos, b, len(b)))
}

// Append writes v at the current logical end of the file and returns its position.
func (c *Cache[E]) Append(v E) (int64, error) {
	if err := c.usable(); err != nil {
		return 0, err
	}
	b, err := c.codec.Encode(v)
	if err != nil {
		return 0, &IOError{Op: "encode", Path: c.file.Name(), Err: err}
	}

	c.lenMu.Lock()
	pos := c.length
	c.length += int64(len(b))
	c.lenMu.Unlock()

	if err := c.enqueue(newRecord(v, pos, b, len(b))); err != nil {
		return 0, err
	}
	return pos, nil
}

func (c *Cache[E]) enqueue(rec *record[E]) error {
	rec.unwritten.Store(true)
	rec.gen = c.gen.Load()

	end := rec.pos + int64(len(rec.bytes))
	c.lenMu.Lock()
	c.length = max(c.length, end)
	c.lenMu.Unlock()

	c.admit(rec, true)

	select {
	case c.queue <- rec:
	default:
		c.backpressure.Add(1)
		c.opts.observer.OnBackpressure()
		if err := c.forceWrite(); err != nil {
			return err
		}
		select {
		case c.queue <- rec:
		case <-c.failCh:
			return c.err()
		case <-c.stopCh:
			return ErrClosed
		}
	}

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

// admit inserts rec into the cache. Without overwrite an existing record at
// the same position wins.
func (c *Cache[E]) admit(rec *record[E], overwrite bool) {
	pressure := c.overThreshold()

	s := c.shard(rec.pos)
	s.mu.Lock()
	old, exists := s.items[rec.pos]
	if exists && !overwrite {
		s.mu.Unlock()
		return
	}
	if exists {
		c.release(old)
	} else {
		c.count.Add(1)
	}
	if rec.size > 0 {
		if err := c.opts.rc.AcquireMemory(int64(rec.size)); err == nil {
			rec.reserved = true
		} else {
			pressure = true
		}
	}
	s.items[rec.pos] = rec
	s.mu.Unlock()

	if pressure {
		c.signalClean()
	}
}

// release returns the memory reserved for rec. Callers hold the shard lock.
func (c *Cache[E]) release(rec *record[E]) {
	if rec.reserved {
		c.opts.rc.ReleaseMemory(int64(rec.size))
		rec.reserved = false
	}
}

func (c *Cache[E]) overThreshold() bool {
	return c.count.Load() >= int64(c.opts.size*cleanPercentage/100)
}

func (c *Cache[E]) signalClean() {
	select {
	case c.cleanCh <- struct{}{}:
	default:
	}
}

// Flush synchronously writes all queued records and runs an eviction pass
// when the cache is over its threshold.
func (c *Cache[E]) Flush() error {
	if err := c.usable(); err != nil {
		return err
	}
	if err := c.forceWrite(); err != nil {
		return err
	}
	if c.overThreshold() {
		c.clean()
	}
	return nil
}

// Clear drops all cached and queued records and truncates the file.
func (c *Cache[E]) Clear() error {
	if c.closed.Load() {
		return ErrClosed
	}

	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	// Records captured by the writer before this point belong to an older
	// generation and are skipped when flushed.
	c.gen.Add(1)
	c.held = nil
	c.drain(nil)

	c.dropAll()

	c.fileMu.Lock()
	err := c.file.Truncate(0)
	c.fileMu.Unlock()

	c.lenMu.Lock()
	c.length = 0
	c.lenMu.Unlock()

	if err != nil {
		return &IOError{Op: "truncate", Path: c.file.Name(), Err: err}
	}
	return nil
}

func (c *Cache[E]) dropAll() {
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		for _, rec := range s.items {
			c.release(rec)
		}
		c.count.Add(-int64(len(s.items)))
		s.items = make(map[int64]*record[E])
		s.mu.Unlock()
	}
}

// Close stops the background writer after a final flush and closes the file.
// It returns the writer's terminal error, if any.
func (c *Cache[E]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	close(c.stopCh)
	<-c.done

	err := c.err()
	c.dropAll()
	if cerr := c.file.Close(); cerr != nil && err == nil {
		err = &IOError{Op: "close", Path: c.file.Name(), Err: cerr}
	}
	return err
}

// Len returns the number of cached records.
func (c *Cache[E]) Len() int {
	return int(c.count.Load())
}

// Length returns the logical file length, including queued records.
func (c *Cache[E]) Length() int64 {
	c.lenMu.Lock()
	defer c.lenMu.Unlock()
	return c.length
}

// Path returns the backing file name.
func (c *Cache[E]) Path() string {
	return c.file.Name()
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[E]) Stats() Stats {
	return Stats{
		Cached:         c.Len(),
		Length:         c.Length(),
		Hits:           c.hits.Load(),
		Misses:         c.misses.Load(),
		Evicted:        c.evicted.Load(),
		Flushes:        c.flushes.Load(),
		Chunks:         c.chunks.Load(),
		RecordsWritten: c.recordsWritten.Load(),
		BytesWritten:   c.written.Load(),
		Backpressure:   c.backpressure.Load(),
		MinUsageToKeep: int(c.minUsage.Load()),
	}
}

func (c *Cache[E]) usable() error {
	if c.closed.Load() {
		return ErrClosed
	}
	return c.err()
}

func (c *Cache[E]) err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.lastErr == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrWriterFailed, c.lastErr)
}

// fail records the first terminal writer error.
func (c *Cache[E]) fail(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.lastErr != nil {
		return
	}
	c.lastErr = err
	close(c.failCh)
	c.log.Error("background writer stopped", "error", err)
}
