//go:build unix

package fileutil

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// readable reports whether the current process may open path for reading.
func readable(path string) bool {
	return unix.Access(path, unix.R_OK) == nil
}

type fileID struct {
	dev, ino uint64
}

// identify returns the device and inode of info.
func identify(info os.FileInfo) (fileID, bool) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fileID{}, false
	}
	return fileID{dev: uint64(st.Dev), ino: uint64(st.Ino)}, true
}
