package frame

import (
	"fmt"
	"io"

	"github.com/hupe1980/diskset/codec"
)

// ValueCodec serializes values of type T into frames. It satisfies the record
// codec contract of the paged cache for the contents file.
type ValueCodec[T any] struct {
	Codec   codec.Codec
	Options Options
}

// NewValueCodec returns a ValueCodec using c, or codec.Default when c is nil.
func NewValueCodec[T any](c codec.Codec, opts Options) *ValueCodec[T] {
	if c == nil {
		c = codec.Default
	}
	return &ValueCodec[T]{Codec: c, Options: opts}
}

// Encode marshals v and wraps it in a frame.
func (vc *ValueCodec[T]) Encode(v T) ([]byte, error) {
	payload, err := vc.Codec.Marshal(&v)
	if err != nil {
		return nil, fmt.Errorf("%s marshal: %w", vc.Codec.Name(), err)
	}
	return Encode(payload, vc.Options)
}

// Decode reads and unmarshals the frame at off.
func (vc *ValueCodec[T]) Decode(r io.ReaderAt, off int64) (T, error) {
	var v T
	payload, err := ReadAt(r, off)
	if err != nil {
		return v, err
	}
	if err := vc.Codec.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("%s unmarshal at offset %d: %w", vc.Codec.Name(), off, err)
	}
	return v, nil
}
