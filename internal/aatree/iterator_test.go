package aatree

import (
	"cmp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/diskset/codec"
	"github.com/hupe1980/diskset/internal/frame"
	"github.com/hupe1980/diskset/internal/fs"
	"github.com/hupe1980/diskset/internal/pagecache"
	"github.com/hupe1980/diskset/testutil"
)

func TestIterator_Empty(t *testing.T) {
	tree, _, _ := newMemTree[int](t)
	it := tree.Iterator()

	_, err := it.Next()
	assert.ErrorIs(t, err, ErrNoMoreElements)
	assert.ErrorIs(t, it.Remove(), ErrIllegalState)
}

func TestIterator_RemoveWithoutNext(t *testing.T) {
	tree, _, _ := newMemTree[int](t)
	require.NoError(t, tree.Insert(1))

	it := tree.Iterator()
	assert.ErrorIs(t, it.Remove(), ErrIllegalState)

	_, err := it.Next()
	require.NoError(t, err)
	require.NoError(t, it.Remove())
	assert.ErrorIs(t, it.Remove(), ErrIllegalState)
	assert.Equal(t, 0, tree.Len())
}

func TestIterator_RemoveEvens(t *testing.T) {
	tree, _, _ := newMemTree[int](t)
	for i := range 40 {
		require.NoError(t, tree.Insert((i*17)%40))
	}

	var seen []int
	it := tree.Iterator()
	for {
		v, err := it.Next()
		if err == ErrNoMoreElements {
			break
		}
		require.NoError(t, err)
		seen = append(seen, v)
		if v%2 == 0 {
			require.NoError(t, it.Remove())
		}
	}

	want := make([]int, 40)
	for i := range want {
		want[i] = i
	}
	assert.Equal(t, want, seen)

	var odds []int
	for i := 1; i < 40; i += 2 {
		odds = append(odds, i)
	}
	assert.Equal(t, odds, collect(t, tree))
	require.NoError(t, tree.Verify())
}

func TestIterator_RemoveAmongDuplicates(t *testing.T) {
	tree, _, _ := newMemTree[int](t)
	for _, v := range []int{2, 1, 2, 3, 2} {
		require.NoError(t, tree.Insert(v))
	}

	var seen []int
	it := tree.Iterator()
	for {
		v, err := it.Next()
		if err == ErrNoMoreElements {
			break
		}
		require.NoError(t, err)
		seen = append(seen, v)
		if len(seen) == 3 {
			require.NoError(t, it.Remove())
		}
	}

	assert.Equal(t, []int{1, 2, 2, 2, 3}, seen)
	assert.Equal(t, []int{1, 2, 2, 3}, collect(t, tree))
}

func TestIterator_RemoveAll(t *testing.T) {
	tree, _, _ := newMemTree[int](t)
	for i := range 25 {
		require.NoError(t, tree.Insert(i))
	}

	it := tree.Iterator()
	n := 0
	for {
		_, err := it.Next()
		if err == ErrNoMoreElements {
			break
		}
		require.NoError(t, err)
		require.NoError(t, it.Remove())
		n++
	}
	assert.Equal(t, 25, n)
	assert.Equal(t, 0, tree.Len())
}

func TestIterator_ConcurrentModification(t *testing.T) {
	tree, _, _ := newMemTree[int](t)
	for i := range 5 {
		require.NoError(t, tree.Insert(i))
	}

	it := tree.Iterator()
	_, err := it.Next()
	require.NoError(t, err)

	require.NoError(t, tree.Insert(10))

	_, err = it.Next()
	assert.ErrorIs(t, err, ErrConcurrentModification)
	assert.ErrorIs(t, it.Remove(), ErrConcurrentModification)
}

func TestTree_PageCacheBacked(t *testing.T) {
	dir := t.TempDir()

	idxFile, err := fs.Default.CreateTemp(dir, "tree-*.idx")
	require.NoError(t, err)
	index, err := pagecache.New[Entry](idxFile, EntryCodec{},
		pagecache.WithSize(32), pagecache.WithFlushDelay(time.Millisecond))
	require.NoError(t, err)
	defer index.Close()

	datFile, err := fs.Default.CreateTemp(dir, "tree-*.dat")
	require.NoError(t, err)
	contents, err := pagecache.New[string](datFile, frame.NewValueCodec[string](codec.GoJSON{}, frame.Options{}),
		pagecache.WithSize(32), pagecache.WithFlushDelay(time.Millisecond))
	require.NoError(t, err)
	defer contents.Close()

	tree, err := New[string](index, contents, cmp.Compare[string])
	require.NoError(t, err)

	words := testutil.NewRNG(7).Strings(300, 12)
	for _, w := range words {
		require.NoError(t, tree.Insert(w))
	}
	require.NoError(t, index.Flush())
	require.NoError(t, contents.Flush())

	for _, w := range words[:100] {
		ok, err := tree.Delete(w)
		require.NoError(t, err)
		require.True(t, ok)
	}
	require.NoError(t, index.Flush())
	require.NoError(t, contents.Flush())

	require.NoError(t, tree.Verify())
	for _, w := range words[100:] {
		ok, err := tree.Contains(w)
		require.NoError(t, err)
		assert.True(t, ok, w)
	}
	assert.Positive(t, index.Stats().Misses)
}
