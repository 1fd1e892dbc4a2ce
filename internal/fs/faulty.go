package fs

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Fault defines specific failure behavior.
type Fault struct {
	FailAfterBytes int64 // Fail writes after this many bytes written TO THIS FILE. -1 to disable.
	FailOnRead     bool
	FailOnSync     bool
	FailOnTruncate bool
	Err            error
}

// FaultyFS is a FileSystem wrapper that can inject errors.
// It also counts physical write calls per file, which lets tests observe
// how many WriteAt operations a component actually issued.
type FaultyFS struct {
	FS      FileSystem
	mu      sync.Mutex
	rules   map[string]Fault // Filename pattern -> Fault
	Default Fault            // Fallback

	Err   error
	files []*faultyFile
}

// NewFaultyFS creates a new FaultyFS wrapping the provided FS (or Default if nil).
func NewFaultyFS(fs FileSystem) *FaultyFS {
	if fs == nil {
		fs = Default
	}
	return &FaultyFS{
		FS:    fs,
		rules: make(map[string]Fault),
		Default: Fault{
			FailAfterBytes: -1, // No limit
		},
		Err: fmt.Errorf("injected fault error"),
	}
}

// AddRule adds a fault injection rule for a specific file pattern.
// Rules apply to files opened after the call.
func (f *FaultyFS) AddRule(pattern string, fault Fault) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[pattern] = fault
}

// WriteCalls returns the number of WriteAt calls issued against files whose
// name contains pattern.
func (f *FaultyFS) WriteCalls(pattern string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, ff := range f.files {
		if strings.Contains(ff.Name(), pattern) {
			n += ff.calls()
		}
	}
	return n
}

// Written returns the number of bytes written to files whose name contains pattern.
func (f *FaultyFS) Written(pattern string) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, ff := range f.files {
		if strings.Contains(ff.Name(), pattern) {
			n += ff.bytes()
		}
	}
	return n
}

func (f *FaultyFS) OpenFile(name string, flag int, perm os.FileMode) (File, error) {
	file, err := f.FS.OpenFile(name, flag, perm)
	if err != nil {
		return nil, err
	}
	return f.wrap(file), nil
}

func (f *FaultyFS) CreateTemp(dir, pattern string) (File, error) {
	file, err := f.FS.CreateTemp(dir, pattern)
	if err != nil {
		return nil, err
	}
	return f.wrap(file), nil
}

func (f *FaultyFS) wrap(file File) File {
	f.mu.Lock()
	defer f.mu.Unlock()

	fault := f.Default
	// Match pattern (last winning match)
	for pattern, rule := range f.rules {
		if strings.Contains(file.Name(), pattern) {
			fault = rule
		}
	}
	if fault.Err == nil {
		fault.Err = f.Err
	}

	ff := &faultyFile{File: file, fault: fault}
	f.files = append(f.files, ff)
	return ff
}

func (f *FaultyFS) Remove(name string) error {
	return f.FS.Remove(name)
}

func (f *FaultyFS) Stat(name string) (os.FileInfo, error) {
	return f.FS.Stat(name)
}

func (f *FaultyFS) MkdirAll(path string, perm os.FileMode) error {
	return f.FS.MkdirAll(path, perm)
}

type faultyFile struct {
	File
	fault Fault

	mu         sync.Mutex
	written    int64
	writeCalls int64
}

func (ff *faultyFile) calls() int64 {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	return ff.writeCalls
}

func (ff *faultyFile) bytes() int64 {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	return ff.written
}

func (ff *faultyFile) WriteAt(p []byte, off int64) (n int, err error) {
	ff.mu.Lock()
	ff.writeCalls++
	exceeded := ff.fault.FailAfterBytes >= 0 && ff.written+int64(len(p)) > ff.fault.FailAfterBytes
	if !exceeded {
		ff.written += int64(len(p))
	}
	ff.mu.Unlock()

	if exceeded {
		return 0, ff.fault.Err
	}
	return ff.File.WriteAt(p, off)
}

func (ff *faultyFile) ReadAt(p []byte, off int64) (int, error) {
	if ff.fault.FailOnRead {
		return 0, ff.fault.Err
	}
	return ff.File.ReadAt(p, off)
}

func (ff *faultyFile) Sync() error {
	if ff.fault.FailOnSync {
		return ff.fault.Err
	}
	return ff.File.Sync()
}

func (ff *faultyFile) Truncate(size int64) error {
	if ff.fault.FailOnTruncate {
		return ff.fault.Err
	}
	return ff.File.Truncate(size)
}
