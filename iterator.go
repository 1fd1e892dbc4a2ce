package diskset

import "github.com/hupe1980/diskset/internal/aatree"

// Iterator walks a collection in ascending order. It is invalidated by any
// mutation not made through its own Remove method.
//
// An Iterator must not be used from multiple goroutines at once.
type Iterator[T any] struct {
	c  *Collection[T]
	it *aatree.Iterator[T]
}

// Next returns the next value. It returns ErrNoMoreElements once the
// iteration is exhausted.
func (it *Iterator[T]) Next() (T, error) {
	it.c.mu.RLock()
	defer it.c.mu.RUnlock()

	if it.c.closed || it.it == nil {
		var zero T
		return zero, ErrClosed
	}

	v, err := it.it.Next()
	return v, translateError(err)
}

// Remove deletes the value most recently returned by Next. Calling it twice
// in a row, or before Next, returns ErrIllegalState.
func (it *Iterator[T]) Remove() (err error) {
	it.c.mu.Lock()
	defer it.c.mu.Unlock()

	if it.c.closed || it.it == nil {
		return ErrClosed
	}

	err = translateError(it.it.Remove())
	if err == nil {
		it.c.logger.LogRemove(true, it.c.tree.Len(), nil)
	}
	return err
}
