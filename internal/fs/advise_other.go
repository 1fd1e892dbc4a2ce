//go:build !linux

package fs

import "os"

func adviseRandom(*os.File) {}
