package aatree

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
)

// ErrInvalidArgument is returned for a nil store or comparator.
var ErrInvalidArgument = errors.New("aatree: invalid argument")

// Store is a positional record store, typically a write-back page cache.
type Store[E any] interface {
	Read(pos int64) (E, error)
	Write(v E, pos int64) error
	Append(v E) (int64, error)
	Clear() error
}

// Tree is an AA tree over an index store of entries and a contents store of
// values. Tree is not safe for concurrent mutation; callers serialize access.
type Tree[T any] struct {
	index    Store[Entry]
	contents Store[T]
	compare  func(a, b T) int

	size int
	// free holds index slot numbers released by Delete.
	free *roaring64.Bitmap
	// dead counts contents records no longer referenced by any node.
	dead int64
	// mod changes on every mutation and invalidates iterators.
	mod uint64
}

// New returns an empty tree. Both stores must be empty.
func New[T any](index Store[Entry], contents Store[T], compare func(a, b T) int) (*Tree[T], error) {
	if index == nil || contents == nil {
		return nil, fmt.Errorf("%w: store is nil", ErrInvalidArgument)
	}
	if compare == nil {
		return nil, fmt.Errorf("%w: comparator is nil", ErrInvalidArgument)
	}
	return &Tree[T]{
		index:    index,
		contents: contents,
		compare:  compare,
		free:     roaring64.New(),
	}, nil
}

// Len returns the number of stored values.
func (t *Tree[T]) Len() int { return t.size }

// FreeSlots returns the number of released index slots awaiting reuse.
func (t *Tree[T]) FreeSlots() uint64 { return t.free.GetCardinality() }

// DeadValues returns the number of unreferenced records in the contents store.
func (t *Tree[T]) DeadValues() int64 { return t.dead }

// Insert adds v. Equal values are kept and ordered after existing ones.
func (t *Tree[T]) Insert(v T) error {
	obj, err := t.contents.Append(v)
	if err != nil {
		return err
	}

	if t.size == 0 {
		off, err := t.alloc(Entry{Object: obj, Left: NilPos, Right: NilPos, Level: 1})
		if err != nil {
			return err
		}
		if off != rootPos {
			return fmt.Errorf("aatree: first node allocated at offset %d", off)
		}
	} else if err := t.insert(rootPos, v, obj); err != nil {
		return err
	}

	t.size++
	t.mod++
	return nil
}

func (t *Tree[T]) insert(off int64, v T, obj int64) error {
	n, err := t.node(off)
	if err != nil {
		return err
	}
	cur, err := t.value(n)
	if err != nil {
		return err
	}

	child := &n.Right
	if t.compare(v, cur) < 0 {
		child = &n.Left
	}

	if *child == NilPos {
		leaf, err := t.alloc(Entry{Object: obj, Left: NilPos, Right: NilPos, Level: 1})
		if err != nil {
			return err
		}
		*child = leaf
		if err := t.write(n); err != nil {
			return err
		}
	} else if err := t.insert(*child, v, obj); err != nil {
		return err
	}

	if n, err = t.skew(n); err != nil {
		return err
	}
	_, err = t.split(n)
	return err
}

// Contains reports whether a value equal to v is stored.
func (t *Tree[T]) Contains(v T) (bool, error) {
	if t.size == 0 {
		return false, nil
	}

	off := rootPos
	for off != NilPos {
		n, err := t.node(off)
		if err != nil {
			return false, err
		}
		cur, err := t.value(n)
		if err != nil {
			return false, err
		}

		switch c := t.compare(v, cur); {
		case c < 0:
			off = n.Left
		case c > 0:
			off = n.Right
		default:
			return true, nil
		}
	}
	return false, nil
}

// Reset drops all values and clears both stores. The next insert allocates
// the root at offset 0 again.
func (t *Tree[T]) Reset() error {
	t.size = 0
	t.dead = 0
	t.free.Clear()
	t.mod++

	return errors.Join(t.index.Clear(), t.contents.Clear())
}

func (t *Tree[T]) node(off int64) (node, error) {
	if off < 0 || off%EntrySize != 0 {
		return node{}, fmt.Errorf("aatree: invalid node offset %d", off)
	}
	e, err := t.index.Read(off)
	if err != nil {
		return node{}, err
	}
	return node{Entry: e, off: off}, nil
}

func (t *Tree[T]) value(n node) (T, error) {
	return t.contents.Read(n.Object)
}

func (t *Tree[T]) write(n node) error {
	return t.index.Write(n.Entry, n.off)
}

func (t *Tree[T]) level(off int64) (int32, error) {
	if off == NilPos {
		return 0, nil
	}
	n, err := t.node(off)
	if err != nil {
		return 0, err
	}
	return n.Level, nil
}

// alloc stores e in the lowest free slot, or at the end of the index.
func (t *Tree[T]) alloc(e Entry) (int64, error) {
	if !t.free.IsEmpty() {
		slot := t.free.Minimum()
		t.free.Remove(slot)
		off := int64(slot) * EntrySize
		if err := t.index.Write(e, off); err != nil {
			return 0, err
		}
		return off, nil
	}
	return t.index.Append(e)
}

func (t *Tree[T]) release(off int64) {
	t.free.Add(uint64(off / EntrySize))
}
