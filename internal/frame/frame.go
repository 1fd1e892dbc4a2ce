// Package frame lays out variable-length value records in the contents file.
//
// Every frame starts with a fixed header:
//
//	[payloadLen u32][rawLen u32][flags u8][checksum u64][payload...]
//
// The low two flag bits hold the compression applied to the payload, the high
// bit marks a HighwayHash-64 checksum over the stored payload.
package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/hupe1980/diskset/internal/conv"
	"github.com/minio/highwayhash"
)

// HeaderSize is the fixed size of a frame header.
const HeaderSize = 17

const (
	flagCompressionMask = 0x03
	flagChecksum        = 0x80
)

var (
	// ErrChecksumMismatch is returned when a stored payload fails verification.
	ErrChecksumMismatch = errors.New("frame checksum mismatch")
	// ErrCorruptFrame is returned when a header cannot describe a valid frame.
	ErrCorruptFrame = errors.New("corrupt frame")
)

// checksumKey is the fixed HighwayHash key; frames are private to one process
// so the key only needs to be stable, not secret.
var checksumKey = []byte("diskset-contents-frame-checksum!")

// Options controls how payloads are framed.
type Options struct {
	Compression Compression
	Checksums   bool
}

// Encode wraps payload in a frame.
func Encode(payload []byte, opts Options) ([]byte, error) {
	stored, applied, err := compress(payload, opts.Compression)
	if err != nil {
		return nil, fmt.Errorf("compress frame: %w", err)
	}

	storedLen, err := conv.IntToUint32(len(stored))
	if err != nil {
		return nil, fmt.Errorf("frame payload: %w", err)
	}
	rawLen, err := conv.IntToUint32(len(payload))
	if err != nil {
		return nil, fmt.Errorf("frame payload: %w", err)
	}

	buf := make([]byte, HeaderSize+len(stored))
	binary.LittleEndian.PutUint32(buf[0:], storedLen)
	binary.LittleEndian.PutUint32(buf[4:], rawLen)
	flags := byte(applied) & flagCompressionMask
	if opts.Checksums {
		flags |= flagChecksum
		binary.LittleEndian.PutUint64(buf[9:], highwayhash.Sum64(stored, checksumKey))
	}
	buf[8] = flags
	copy(buf[HeaderSize:], stored)
	return buf, nil
}

// ReadAt reads the frame stored at off and returns its decoded payload.
func ReadAt(r io.ReaderAt, off int64) ([]byte, error) {
	var hdr [HeaderSize]byte
	if _, err := r.ReadAt(hdr[:], off); err != nil {
		return nil, err
	}

	storedLen := binary.LittleEndian.Uint32(hdr[0:])
	rawLen := binary.LittleEndian.Uint32(hdr[4:])
	flags := hdr[8]
	c := Compression(flags & flagCompressionMask)
	if c > CompressionZSTD || (c == CompressionNone && storedLen != rawLen) {
		return nil, fmt.Errorf("%w at offset %d", ErrCorruptFrame, off)
	}

	n, err := conv.Uint32ToInt(storedLen)
	if err != nil {
		return nil, fmt.Errorf("%w at offset %d: %w", ErrCorruptFrame, off, err)
	}
	stored := make([]byte, n)
	if n > 0 {
		if _, err := r.ReadAt(stored, off+HeaderSize); err != nil {
			return nil, err
		}
	}

	if flags&flagChecksum != 0 {
		want := binary.LittleEndian.Uint64(hdr[9:])
		if got := highwayhash.Sum64(stored, checksumKey); got != want {
			return nil, fmt.Errorf("%w at offset %d", ErrChecksumMismatch, off)
		}
	}

	payload, err := decompress(stored, c, rawLen)
	if err != nil {
		return nil, fmt.Errorf("%w at offset %d: %w", ErrCorruptFrame, off, err)
	}
	return payload, nil
}
