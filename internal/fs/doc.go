// Package fs provides filesystem abstractions for testability and fault injection.
//
// The package defines two key interfaces:
//
//   - [File]: a positional (ReadAt/WriteAt) backing file with truncate/sync
//   - [FileSystem]: temp-file creation, open, stat and remove
//
// # Implementations
//
//   - [LocalFS]: Production implementation using standard os package
//   - [FaultyFS]: Test utility for fault injection and write-call instrumentation
//
// # Usage
//
// Production code should use fs.Default (which is [LocalFS]):
//
//	file, err := fs.Default.CreateTemp(dir, "diskset-*.idx")
//
// Tests can inject [FaultyFS] to simulate failures or count physical writes:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule(".idx", fs.Fault{FailAfterBytes: 1024})
//	// inject ffs into component under test
//	calls := ffs.WriteCalls(".idx")
//
// # Design Notes
//
// This package intentionally does NOT include context.Context parameters.
// Positional file I/O on local disks is non-interruptible at the syscall level.
package fs
