// Package counter computes line and non-whitespace character counts over file contents.
package counter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/harrison/tally/internal/models"
)

// Per-file failure kinds. A FileError matches exactly one of these through errors.Is.
var (
	ErrFileOpenFailed = errors.New("file open failed")
	ErrFileReadFailed = errors.New("file read failed")
	ErrFileUnreadable = errors.New("file unreadable")
)

// FileError records a failure to count one file.
type FileError struct {
	Op   string // "open", "stat" or "read"
	Path string
	Kind error // one of ErrFileOpenFailed, ErrFileReadFailed, ErrFileUnreadable
	Err  error // underlying cause
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap exposes both the failure kind and the underlying cause.
func (e *FileError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

const bufferSize = 64 * 1024

var bufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, bufferSize)
		return &buf
	},
}

// whitespace matches the C isspace set in the default locale.
var whitespace = [256]bool{
	' ':  true,
	'\t': true,
	'\n': true,
	'\v': true,
	'\f': true,
	'\r': true,
}

// IsSpace reports whether b is classified as whitespace.
func IsSpace(b byte) bool {
	return whitespace[b]
}

// Count returns the counts for data.
func Count(data []byte) models.Counts {
	var c Counter
	c.Write(data)
	return c.Counts()
}

// Counter accumulates counts over everything written to it.
// The zero value is ready to use. A Counter is not safe for concurrent use.
type Counter struct {
	counts models.Counts
}

// Write counts p and never fails.
func (c *Counter) Write(p []byte) (int, error) {
	c.counts.Lines += int64(bytes.Count(p, []byte{'\n'}))
	var chars int64
	for _, b := range p {
		if !whitespace[b] {
			chars++
		}
	}
	c.counts.Characters += chars
	return len(p), nil
}

// Counts returns the totals written so far.
func (c *Counter) Counts() models.Counts {
	return c.counts
}

// CountReader streams r to completion and returns its counts.
func CountReader(r io.Reader) (models.Counts, error) {
	bufp := bufferPool.Get().(*[]byte)
	defer bufferPool.Put(bufp)

	buf := *bufp
	var c Counter
	for {
		n, err := r.Read(buf)
		c.Write(buf[:n])
		if err == io.EOF {
			return c.Counts(), nil
		}
		if err != nil {
			return models.Counts{}, err
		}
	}
}

// CountFile opens path, reads it fully and returns its counts.
// Failures are returned as *FileError.
func CountFile(path string) (models.Counts, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.Counts{}, &FileError{Op: "open", Path: path, Kind: ErrFileOpenFailed, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return models.Counts{}, &FileError{Op: "stat", Path: path, Kind: ErrFileReadFailed, Err: err}
	}
	if !info.Mode().IsRegular() {
		return models.Counts{}, &FileError{
			Op:   "stat",
			Path: path,
			Kind: ErrFileUnreadable,
			Err:  fmt.Errorf("not a regular file (mode %s)", info.Mode().Type()),
		}
	}

	counts, err := CountReader(f)
	if err != nil {
		return models.Counts{}, &FileError{Op: "read", Path: path, Kind: ErrFileReadFailed, Err: err}
	}
	return counts, nil
}
