package aatree

import "errors"

var (
	// ErrNoMoreElements is returned by Next once the iteration is exhausted.
	ErrNoMoreElements = errors.New("aatree: no more elements")
	// ErrIllegalState is returned by Remove without a preceding Next.
	ErrIllegalState = errors.New("aatree: remove without a preceding next")
	// ErrConcurrentModification is returned when the tree changed behind the
	// iterator's back.
	ErrConcurrentModification = errors.New("aatree: tree modified during iteration")
)

type stackFrame struct {
	node        node
	leftVisited bool
}

// Iterator walks the tree in order with an explicit stack.
type Iterator[T any] struct {
	t     *Tree[T]
	stack []stackFrame
	mod   uint64
	err   error

	last    T
	hasLast bool
	// prev is the most recent value yielded and run the number of yielded
	// values equal to it.
	prev    T
	hasPrev bool
	run     int
}

// Iterator returns an iterator positioned before the smallest value.
func (t *Tree[T]) Iterator() *Iterator[T] {
	it := &Iterator[T]{t: t, mod: t.mod}
	if t.size > 0 {
		it.err = it.push(rootPos, false)
	}
	return it
}

// Next returns the next value in order.
func (it *Iterator[T]) Next() (T, error) {
	var zero T
	if it.err != nil {
		return zero, it.err
	}
	if it.mod != it.t.mod {
		return zero, ErrConcurrentModification
	}

	for len(it.stack) > 0 {
		top := &it.stack[len(it.stack)-1]
		if !top.leftVisited {
			top.leftVisited = true
			if top.node.Left != NilPos {
				if err := it.push(top.node.Left, false); err != nil {
					return zero, it.fail(err)
				}
				continue
			}
		}

		n := top.node
		it.stack = it.stack[:len(it.stack)-1]
		if n.Right != NilPos {
			if err := it.push(n.Right, false); err != nil {
				return zero, it.fail(err)
			}
		}

		v, err := it.t.value(n)
		if err != nil {
			return zero, it.fail(err)
		}
		it.yield(v)
		return v, nil
	}

	return zero, ErrNoMoreElements
}

// Remove deletes the value most recently returned by Next.
func (it *Iterator[T]) Remove() error {
	if it.err != nil {
		return it.err
	}
	if !it.hasLast {
		return ErrIllegalState
	}
	if it.mod != it.t.mod {
		return ErrConcurrentModification
	}

	found, err := it.t.Delete(it.last)
	if err != nil {
		return it.fail(err)
	}
	it.hasLast = false
	it.mod = it.t.mod
	if !found {
		return nil
	}

	// Rotations may have moved any node on the stack, so reposition at the
	// first value not less than the removed one and skip the equal values
	// already yielded.
	it.run--
	if err := it.seek(it.last); err != nil {
		return it.fail(err)
	}
	for range it.run {
		if _, err := it.advance(); err != nil {
			return it.fail(err)
		}
	}
	return nil
}

func (it *Iterator[T]) yield(v T) {
	if it.hasPrev && it.t.compare(v, it.prev) == 0 {
		it.run++
	} else {
		it.run = 1
	}
	it.prev, it.hasPrev = v, true
	it.last, it.hasLast = v, true
}

// advance steps over one value without touching the yield bookkeeping.
func (it *Iterator[T]) advance() (T, error) {
	prev, hasPrev, run := it.prev, it.hasPrev, it.run
	v, err := it.Next()
	it.prev, it.hasPrev, it.run = prev, hasPrev, run
	it.hasLast = false
	return v, err
}

// seek rebuilds the stack so the next value returned is the smallest one
// not less than key.
func (it *Iterator[T]) seek(key T) error {
	it.stack = it.stack[:0]
	if it.t.size == 0 {
		return nil
	}

	off := rootPos
	for off != NilPos {
		n, err := it.t.node(off)
		if err != nil {
			return err
		}
		cur, err := it.t.value(n)
		if err != nil {
			return err
		}
		if it.t.compare(cur, key) >= 0 {
			// Values left of n still need a visit; n itself follows them.
			it.stack = append(it.stack, stackFrame{node: n, leftVisited: true})
			off = n.Left
		} else {
			off = n.Right
		}
	}
	return nil
}

func (it *Iterator[T]) push(off int64, leftVisited bool) error {
	n, err := it.t.node(off)
	if err != nil {
		return err
	}
	it.stack = append(it.stack, stackFrame{node: n, leftVisited: leftVisited})
	return nil
}

func (it *Iterator[T]) fail(err error) error {
	it.err = err
	return err
}
