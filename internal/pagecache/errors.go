package pagecache

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed is returned by operations on a closed cache.
	ErrClosed = errors.New("pagecache: closed")
	// ErrWriterFailed is returned once the background writer hit an I/O error.
	ErrWriterFailed = errors.New("pagecache: background writer failed")
	// ErrInvalidArgument is returned for invalid constructor or call arguments.
	ErrInvalidArgument = errors.New("pagecache: invalid argument")
)

// IOError describes a failed read, write or encode against the backing file.
//
// The underlying error can be accessed via errors.Unwrap.
type IOError struct {
	Op     string
	Path   string
	Offset int64
	Err    error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("pagecache: %s %s at offset %d: %v", e.Op, e.Path, e.Offset, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
