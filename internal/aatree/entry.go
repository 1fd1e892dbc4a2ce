package aatree

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// EntrySize is the encoded size of an index entry.
	EntrySize = 28

	// NilPos marks a missing child.
	NilPos int64 = -1

	rootPos int64 = 0
)

// Entry is one AA tree node as stored in the index file.
type Entry struct {
	// Object is the offset of the node's value in the contents file.
	Object int64
	Left   int64
	Right  int64
	Level  int32
}

// EntryCodec encodes entries as fixed-width little-endian records.
type EntryCodec struct{}

// Encode returns the 28-byte encoding of e.
func (EntryCodec) Encode(e Entry) ([]byte, error) {
	buf := make([]byte, EntrySize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(e.Object))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(e.Left))
	binary.LittleEndian.PutUint64(buf[16:24], uint64(e.Right))
	binary.LittleEndian.PutUint32(buf[24:28], uint32(e.Level))
	return buf, nil
}

// Decode reads the entry stored at off.
func (EntryCodec) Decode(r io.ReaderAt, off int64) (Entry, error) {
	var buf [EntrySize]byte
	if _, err := r.ReadAt(buf[:], off); err != nil {
		return Entry{}, fmt.Errorf("read index entry: %w", err)
	}
	return Entry{
		Object: int64(binary.LittleEndian.Uint64(buf[0:8])),
		Left:   int64(binary.LittleEndian.Uint64(buf[8:16])),
		Right:  int64(binary.LittleEndian.Uint64(buf[16:24])),
		Level:  int32(binary.LittleEndian.Uint32(buf[24:28])),
	}, nil
}

// node is an entry together with its own offset, which is never persisted.
type node struct {
	Entry
	off int64
}

func (n node) isLeaf() bool {
	return n.Left == NilPos && n.Right == NilPos
}
