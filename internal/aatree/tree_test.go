package aatree

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/diskset/testutil"
)

// memStore is an in-memory Store with a fixed record stride.
type memStore[E any] struct {
	recs   map[int64]E
	stride int64
	next   int64
}

func newMemStore[E any](stride int64) *memStore[E] {
	return &memStore[E]{recs: make(map[int64]E), stride: stride}
}

func (m *memStore[E]) Read(pos int64) (E, error) {
	v, ok := m.recs[pos]
	if !ok {
		var zero E
		return zero, fmt.Errorf("no record at %d", pos)
	}
	return v, nil
}

func (m *memStore[E]) Write(v E, pos int64) error {
	m.recs[pos] = v
	m.next = max(m.next, pos+m.stride)
	return nil
}

func (m *memStore[E]) Append(v E) (int64, error) {
	pos := m.next
	m.recs[pos] = v
	m.next += m.stride
	return pos, nil
}

func (m *memStore[E]) Clear() error {
	m.recs = make(map[int64]E)
	m.next = 0
	return nil
}

func newMemTree[T cmp.Ordered](t *testing.T) (*Tree[T], *memStore[Entry], *memStore[T]) {
	t.Helper()
	idx := newMemStore[Entry](EntrySize)
	contents := newMemStore[T](1)
	tree, err := New[T](idx, contents, cmp.Compare[T])
	require.NoError(t, err)
	return tree, idx, contents
}

func collect[T any](t *testing.T, tree *Tree[T]) []T {
	t.Helper()
	var out []T
	it := tree.Iterator()
	for {
		v, err := it.Next()
		if err == ErrNoMoreElements {
			return out
		}
		require.NoError(t, err)
		out = append(out, v)
	}
}

func TestNew_InvalidArguments(t *testing.T) {
	idx := newMemStore[Entry](EntrySize)
	contents := newMemStore[int](1)

	_, err := New[int](nil, contents, cmp.Compare[int])
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = New[int](idx, nil, cmp.Compare[int])
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = New[int](idx, contents, nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestEntryCodec(t *testing.T) {
	var c EntryCodec
	e := Entry{Object: 1 << 40, Left: NilPos, Right: 56, Level: 7}

	b, err := c.Encode(e)
	require.NoError(t, err)
	require.Len(t, b, EntrySize)

	got, err := c.Decode(bytes.NewReader(append(make([]byte, 28), b...)), 28)
	require.NoError(t, err)
	assert.Equal(t, e, got)

	_, err = c.Decode(bytes.NewReader(b[:10]), 0)
	assert.Error(t, err)
}

func TestTree_InsertOrder(t *testing.T) {
	tree, _, _ := newMemTree[string](t)

	for _, v := range []string{"Test3", "Test1", "Test2"} {
		require.NoError(t, tree.Insert(v))
	}

	assert.Equal(t, []string{"Test1", "Test2", "Test3"}, collect(t, tree))
	assert.Equal(t, 3, tree.Len())
	require.NoError(t, tree.Verify())
}

func TestTree_RandomStringsMatchSort(t *testing.T) {
	tree, _, _ := newMemTree[string](t)
	words := testutil.NewRNG(4711).Strings(1000, 20)

	for _, w := range words {
		require.NoError(t, tree.Insert(w))
	}
	require.NoError(t, tree.Verify())

	assert.Equal(t, slices.Sorted(slices.Values(words)), collect(t, tree))

	for _, w := range words {
		ok, err := tree.Contains(w)
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := tree.Contains("not-a-20-char-string")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTree_Duplicates(t *testing.T) {
	tree, _, _ := newMemTree[int](t)

	for _, v := range []int{5, 5, 1, 5, 9} {
		require.NoError(t, tree.Insert(v))
	}
	assert.Equal(t, []int{1, 5, 5, 5, 9}, collect(t, tree))

	for range 3 {
		ok, err := tree.Delete(5)
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, tree.Verify())
	}

	ok, err := tree.Delete(5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []int{1, 9}, collect(t, tree))
}

func TestTree_DeleteAbsent(t *testing.T) {
	tree, _, _ := newMemTree[int](t)

	ok, err := tree.Delete(1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, tree.Insert(2))
	ok, err = tree.Delete(1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, tree.Len())
}

func TestTree_RandomOperationsKeepInvariants(t *testing.T) {
	tree, idx, _ := newMemTree[int](t)
	rng := testutil.NewRNG(42)

	var ref []int
	for i := range 800 {
		v := rng.Intn(200)
		if rng.Intn(3) == 0 {
			ok, err := tree.Delete(v)
			require.NoError(t, err)
			pos, want := slices.BinarySearch(ref, v)
			assert.Equal(t, want, ok, "op %d delete %d", i, v)
			if want {
				ref = slices.Delete(ref, pos, pos+1)
			}
		} else {
			require.NoError(t, tree.Insert(v))
			pos, _ := slices.BinarySearch(ref, v)
			ref = slices.Insert(ref, pos, v)
		}

		require.Equal(t, len(ref), tree.Len())
		require.NoError(t, tree.Verify(), "op %d", i)

		if len(ref) > 0 {
			// The root is always the entry at offset 0.
			_, ok := idx.recs[0]
			require.True(t, ok)
		}
	}

	assert.Equal(t, ref, collect(t, tree))
}

func TestTree_RootStaysAtOffsetZero(t *testing.T) {
	tree, idx, contents := newMemTree[int](t)

	// Ascending inserts force a rotation on almost every step.
	for i := range 64 {
		require.NoError(t, tree.Insert(i))

		root, err := idx.Read(0)
		require.NoError(t, err)
		maxLevel := root.Level
		for off := int64(0); off < idx.next; off += EntrySize {
			if e, ok := idx.recs[off]; ok {
				assert.LessOrEqual(t, e.Level, maxLevel)
			}
		}
	}
	require.NoError(t, tree.Verify())

	first, err := contents.Read(0)
	require.NoError(t, err)
	assert.Equal(t, 0, first)
}

func TestTree_FreeSlotReuse(t *testing.T) {
	tree, idx, _ := newMemTree[int](t)

	for i := range 10 {
		require.NoError(t, tree.Insert(i))
	}
	assert.Equal(t, int64(10*EntrySize), idx.next)

	for _, v := range []int{2, 5, 7} {
		ok, err := tree.Delete(v)
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, uint64(3), tree.FreeSlots())
	assert.Equal(t, int64(3), tree.DeadValues())

	for _, v := range []int{20, 21, 22} {
		require.NoError(t, tree.Insert(v))
	}
	assert.Equal(t, uint64(0), tree.FreeSlots())
	assert.Equal(t, int64(10*EntrySize), idx.next)
	require.NoError(t, tree.Verify())
	assert.Equal(t, []int{0, 1, 3, 4, 6, 8, 9, 20, 21, 22}, collect(t, tree))
}

func TestTree_ResetsWhenEmptied(t *testing.T) {
	tree, idx, contents := newMemTree[int](t)

	for _, v := range []int{3, 1, 2} {
		require.NoError(t, tree.Insert(v))
	}
	for _, v := range []int{1, 3, 2} {
		ok, err := tree.Delete(v)
		require.NoError(t, err)
		require.True(t, ok)
	}

	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, int64(0), idx.next)
	assert.Equal(t, int64(0), contents.next)
	assert.Equal(t, uint64(0), tree.FreeSlots())
	assert.Empty(t, collect(t, tree))

	require.NoError(t, tree.Insert(7))
	root, err := idx.Read(0)
	require.NoError(t, err)
	assert.Equal(t, int32(1), root.Level)
	assert.Equal(t, []int{7}, collect(t, tree))
}

func TestTree_Reset(t *testing.T) {
	tree, idx, _ := newMemTree[int](t)
	for i := range 5 {
		require.NoError(t, tree.Insert(i))
	}

	require.NoError(t, tree.Reset())
	assert.Equal(t, 0, tree.Len())
	assert.Empty(t, idx.recs)

	ok, err := tree.Contains(1)
	require.NoError(t, err)
	assert.False(t, ok)
}
