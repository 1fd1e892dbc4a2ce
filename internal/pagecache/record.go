package pagecache

import (
	"cmp"
	"slices"
	"sync/atomic"
)

// record is one cached value and its position in the backing file.
type record[E any] struct {
	value E
	pos   int64
	// bytes is the serialized form, set once for written records and nil
	// for records admitted by a read.
	bytes []byte
	size  int
	gen   uint64

	usage     atomic.Int32
	unwritten atomic.Bool

	// reserved is guarded by the owning shard's lock.
	reserved bool
}

func newRecord[E any](v E, pos int64, b []byte, size int) *record[E] {
	r := &record[E]{value: v, pos: pos, bytes: b, size: size}
	r.usage.Store(1)
	return r
}

// chunk is one contiguous physical write.
type chunk struct {
	pos int64
	buf []byte
}

// coalesce orders records by position and merges records whose byte ranges
// touch end-to-start. The sort is stable so a later write to the same
// position lands after an earlier one.
func coalesce[E any](batch []*record[E]) []chunk {
	sorted := slices.Clone(batch)
	slices.SortStableFunc(sorted, func(a, b *record[E]) int {
		return cmp.Compare(a.pos, b.pos)
	})

	chunks := make([]chunk, 0, len(sorted))
	for _, r := range sorted {
		if n := len(chunks); n > 0 {
			last := &chunks[n-1]
			if last.pos+int64(len(last.buf)) == r.pos {
				last.buf = append(last.buf, r.bytes...)
				continue
			}
		}
		chunks = append(chunks, chunk{pos: r.pos, buf: slices.Clone(r.bytes)})
	}
	return chunks
}
