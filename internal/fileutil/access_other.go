//go:build !unix

package fileutil

import "os"

// readable reports whether path can be opened for reading.
func readable(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

type fileID struct{}

// identify has no device and inode numbers to offer here; callers fall back
// to os.SameFile.
func identify(os.FileInfo) (fileID, bool) {
	return fileID{}, false
}
