package codec

import (
	"github.com/viant/bintly"
)

// BinaryEncoder is implemented by values that write themselves to a bintly stream.
type BinaryEncoder interface {
	EncodeBinary(stream *bintly.Writer) error
}

// BinaryDecoder is implemented by values that read themselves from a bintly stream.
type BinaryDecoder interface {
	DecodeBinary(stream *bintly.Reader) error
}

var (
	bintlyWriters = bintly.NewWriters()
	bintlyReaders = bintly.NewReaders()
)

// Bintly is a compact binary codec backed by github.com/viant/bintly.
//
// Types implementing BinaryEncoder/BinaryDecoder (usually on the pointer
// receiver) use their hand-written layout; anything else goes through bintly's
// reflection-based encoder.
type Bintly struct{}

// Marshal encodes the value.
func (Bintly) Marshal(v any) ([]byte, error) {
	enc, ok := v.(BinaryEncoder)
	if !ok {
		return bintly.Marshal(v)
	}
	w := bintlyWriters.Get()
	defer bintlyWriters.Put(w)
	if err := enc.EncodeBinary(w); err != nil {
		return nil, err
	}
	// The writer is pooled, so the bytes must be copied out.
	return append([]byte(nil), w.Bytes()...), nil
}

// Unmarshal decodes data into v.
func (Bintly) Unmarshal(data []byte, v any) error {
	dec, ok := v.(BinaryDecoder)
	if !ok {
		return bintly.Unmarshal(data, v)
	}
	r := bintlyReaders.Get()
	defer bintlyReaders.Put(r)
	if err := r.FromBytes(data); err != nil {
		return err
	}
	return dec.DecodeBinary(r)
}

// Name returns the unique name of the codec ("bintly").
func (Bintly) Name() string { return "bintly" }
