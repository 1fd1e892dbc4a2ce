package diskset

import (
	"cmp"
	"errors"
	"fmt"
	"iter"
	"os"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/diskset/internal/aatree"
	"github.com/hupe1980/diskset/internal/frame"
	"github.com/hupe1980/diskset/internal/fs"
	"github.com/hupe1980/diskset/internal/pagecache"
	"github.com/hupe1980/diskset/internal/resource"
)

const (
	indexFile    = "index"
	contentsFile = "contents"
)

// Collection is an ordered multiset whose elements live on disk.
//
// Nodes of an AA tree are kept in an index file and values in a contents
// file, both behind a write-back cache. The files are temporary: they are
// created by New and removed by Close.
//
// A Collection is safe for concurrent use. Mutations are serialized;
// lookups and iteration steps may run in parallel.
type Collection[T any] struct {
	id   string
	opts options

	logger  *Logger
	metrics MetricsCollector
	fs      fs.FileSystem
	rc      *resource.Controller

	mu       sync.RWMutex
	closed   bool
	tree     *aatree.Tree[T]
	index    *pagecache.Cache[aatree.Entry]
	contents *pagecache.Cache[T]
}

// New creates an empty collection ordered by compare, which must return a
// negative number, zero or a positive number as a is less than, equal to or
// greater than b.
func New[T any](compare func(a, b T) int, optFns ...Option) (*Collection[T], error) {
	if compare == nil {
		return nil, fmt.Errorf("%w: comparator is nil", ErrInvalidArgument)
	}

	opts := applyOptions(optFns)
	if err := validateOptions(opts); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	c := &Collection[T]{
		id:      id,
		opts:    opts,
		logger:  opts.logger.WithCollection(id),
		metrics: opts.metricsCollector,
		fs:      opts.fs,
		rc: resource.NewController(resource.Config{
			MemoryLimitBytes:   opts.memoryLimit,
			IOLimitBytesPerSec: opts.ioLimit,
		}),
	}

	if err := c.open(compare); err != nil {
		c.abort()
		return nil, err
	}

	c.logger.LogOpen(c.index.Path(), c.contents.Path(), opts.cacheSize)
	return c, nil
}

// NewOrdered creates an empty collection using the natural order of T.
func NewOrdered[T cmp.Ordered](optFns ...Option) (*Collection[T], error) {
	return New(cmp.Compare[T], optFns...)
}

func validateOptions(o options) error {
	switch {
	case o.cacheSize <= 0:
		return fmt.Errorf("%w: cache size must be positive, got %d", ErrInvalidArgument, o.cacheSize)
	case o.queueSize <= 0:
		return fmt.Errorf("%w: queue size must be positive, got %d", ErrInvalidArgument, o.queueSize)
	case o.flushDelay < 0:
		return fmt.Errorf("%w: negative flush delay %s", ErrInvalidArgument, o.flushDelay)
	case o.ioLimit < 0:
		return fmt.Errorf("%w: negative io limit %d", ErrInvalidArgument, o.ioLimit)
	case o.memoryLimit < 0:
		return fmt.Errorf("%w: negative memory limit %d", ErrInvalidArgument, o.memoryLimit)
	case o.compression > CompressionZSTD:
		return fmt.Errorf("%w: unknown compression %d", ErrInvalidArgument, o.compression)
	}
	return nil
}

func (c *Collection[T]) open(compare func(a, b T) int) error {
	dir := c.opts.tempDir
	if dir == "" {
		dir = os.TempDir()
	} else if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}

	prefix := "diskset-" + c.id + "-*"

	idxFile, err := c.fs.CreateTemp(dir, prefix+".idx")
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	c.index, err = pagecache.New[aatree.Entry](idxFile, aatree.EntryCodec{}, c.cacheOptions(indexFile)...)
	if err != nil {
		_ = idxFile.Close()
		_ = c.fs.Remove(idxFile.Name())
		return translateError(err)
	}

	datFile, err := c.fs.CreateTemp(dir, prefix+".dat")
	if err != nil {
		return fmt.Errorf("create contents file: %w", err)
	}
	valueCodec := frame.NewValueCodec[T](c.opts.codec, frame.Options{
		Compression: c.opts.compression,
		Checksums:   c.opts.checksums,
	})
	c.contents, err = pagecache.New[T](datFile, valueCodec, c.cacheOptions(contentsFile)...)
	if err != nil {
		_ = datFile.Close()
		_ = c.fs.Remove(datFile.Name())
		return translateError(err)
	}

	c.tree, err = aatree.New[T](c.index, c.contents, compare)
	return translateError(err)
}

func (c *Collection[T]) cacheOptions(name string) []pagecache.Option {
	return []pagecache.Option{
		pagecache.WithName(name),
		pagecache.WithSize(c.opts.cacheSize),
		pagecache.WithFlushDelay(c.opts.flushDelay),
		pagecache.WithQueueSize(c.opts.queueSize),
		pagecache.WithLogger(c.logger.Logger),
		pagecache.WithResourceController(c.rc),
		pagecache.WithObserver(cacheObserver{file: name, metrics: c.metrics}),
	}
}

// abort releases whatever open managed to create.
func (c *Collection[T]) abort() {
	if c.index != nil {
		_ = c.index.Close()
		_ = c.fs.Remove(c.index.Path())
	}
	if c.contents != nil {
		_ = c.contents.Close()
		_ = c.fs.Remove(c.contents.Path())
	}
}

// Add inserts v. Equal values may be added more than once.
func (c *Collection[T]) Add(v T) (err error) {
	start := time.Now()
	defer func() { c.metrics.RecordAdd(time.Since(start), err) }()

	if isNil(v) {
		return fmt.Errorf("%w: nil value", ErrInvalidArgument)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	err = translateError(c.tree.Insert(v))
	c.logger.LogAdd(c.tree.Len(), err)
	return err
}

// Contains reports whether a value equal to v is in the collection.
func (c *Collection[T]) Contains(v T) (found bool, err error) {
	start := time.Now()
	defer func() { c.metrics.RecordContains(found, time.Since(start), err) }()

	if isNil(v) {
		return false, fmt.Errorf("%w: nil value", ErrInvalidArgument)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return false, ErrClosed
	}

	found, err = c.tree.Contains(v)
	return found, translateError(err)
}

// Remove deletes one value equal to v and reports whether one was present.
func (c *Collection[T]) Remove(v T) (found bool, err error) {
	start := time.Now()
	defer func() { c.metrics.RecordRemove(found, time.Since(start), err) }()

	if isNil(v) {
		return false, fmt.Errorf("%w: nil value", ErrInvalidArgument)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false, ErrClosed
	}

	found, err = c.tree.Delete(v)
	err = translateError(err)
	c.logger.LogRemove(found, c.tree.Len(), err)
	return found, err
}

// RemoveAll removes one occurrence of each of vs and reports whether any
// value was removed. It stops at the first error.
func (c *Collection[T]) RemoveAll(vs ...T) (bool, error) {
	var changed bool
	for _, v := range vs {
		found, err := c.Remove(v)
		if err != nil {
			return changed, err
		}
		changed = changed || found
	}
	return changed, nil
}

// Iterator returns an iterator over the collection in ascending order.
func (c *Collection[T]) Iterator() *Iterator[T] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return &Iterator[T]{c: c}
	}
	return &Iterator[T]{c: c, it: c.tree.Iterator()}
}

// All returns a range-over-func sequence of the collection in ascending
// order. Iteration stops after the first error is yielded.
func (c *Collection[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		it := c.Iterator()
		for {
			v, err := it.Next()
			if errors.Is(err, ErrNoMoreElements) {
				return
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// ToSlice returns all values in ascending order.
func (c *Collection[T]) ToSlice() ([]T, error) {
	out := make([]T, 0, c.Size())
	for v, err := range c.All() {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Size returns the number of values in the collection.
func (c *Collection[T]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return 0
	}
	return c.tree.Len()
}

// Clear removes every value and truncates both backing files.
func (c *Collection[T]) Clear() (err error) {
	start := time.Now()
	defer func() { c.metrics.RecordClear(time.Since(start), err) }()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClosed
	}

	removed := c.tree.Len()
	err = translateError(c.tree.Reset())
	c.logger.LogClear(removed, err)
	return err
}

// Flush synchronously persists every pending write of both caches.
func (c *Collection[T]) Flush() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}

	var g errgroup.Group
	g.Go(c.index.Flush)
	g.Go(c.contents.Flush)
	return translateError(g.Wait())
}

// Files returns the paths of the index and contents files.
func (c *Collection[T]) Files() (index, contents string) {
	return c.index.Path(), c.contents.Path()
}

// Close flushes pending writes, stops both background writers and removes
// the backing files. Close is idempotent.
func (c *Collection[T]) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	size := c.tree.Len()
	written := c.index.Stats().BytesWritten + c.contents.Stats().BytesWritten

	var g errgroup.Group
	g.Go(c.index.Close)
	g.Go(c.contents.Close)
	err := g.Wait()

	indexPath, contentsPath := c.Files()
	err = errors.Join(err, c.fs.Remove(indexPath), c.fs.Remove(contentsPath))

	c.logger.LogClose(size, written, err)
	return err
}

// isNil reports whether v is nil or a nil pointer, map, slice, channel,
// function or interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}
