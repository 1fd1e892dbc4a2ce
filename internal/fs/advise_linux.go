//go:build linux

package fs

import (
	"os"

	"golang.org/x/sys/unix"
)

// adviseRandom hints the kernel that the file is accessed at random offsets,
// which disables aggressive readahead for record-sized reads.
func adviseRandom(f *os.File) {
	_ = unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_RANDOM)
}
