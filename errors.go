package diskset

import (
	"errors"
	"fmt"

	"github.com/hupe1980/diskset/internal/aatree"
	"github.com/hupe1980/diskset/internal/frame"
	"github.com/hupe1980/diskset/internal/pagecache"
)

var (
	// ErrInvalidArgument is returned for a nil comparator, a nil value or an
	// invalid option.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrClosed is returned by operations on a closed collection.
	ErrClosed = errors.New("collection closed")

	// ErrWriterFailed is returned once a background writer hit an I/O error.
	// Nothing written after that point is persisted.
	ErrWriterFailed = pagecache.ErrWriterFailed

	// ErrNoMoreElements is returned by Iterator.Next when the iteration is exhausted.
	ErrNoMoreElements = aatree.ErrNoMoreElements

	// ErrIllegalState is returned by Iterator.Remove without a preceding Next.
	ErrIllegalState = aatree.ErrIllegalState

	// ErrConcurrentModification is returned by an iterator whose collection
	// was modified other than through the iterator itself.
	ErrConcurrentModification = aatree.ErrConcurrentModification

	// ErrChecksumMismatch is returned when a stored value fails verification.
	ErrChecksumMismatch = frame.ErrChecksumMismatch

	// ErrCorruptFrame is returned when a stored value frame is malformed.
	ErrCorruptFrame = frame.ErrCorruptFrame
)

// IOError describes a failed read or write against one of the backing files.
//
// The underlying error can be accessed via errors.Unwrap.
type IOError = pagecache.IOError

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pagecache.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	if errors.Is(err, pagecache.ErrInvalidArgument) || errors.Is(err, aatree.ErrInvalidArgument) {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	return err
}
