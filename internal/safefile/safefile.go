// Package safefile provides security-hardened file operations.
package safefile

import (
	"errors"
	"os"
)

// ErrNotRegularFile is returned when attempting to open a file that is
// not a regular file (symlink, FIFO, device, socket, or directory).
var ErrNotRegularFile = errors.New("not a regular file")

// OpenRegular opens a file for reading and verifies it is a regular file.
//
// The path is checked with Lstat first so symlinks are rejected, then
// the opened descriptor is stat'd again to catch the file being swapped
// between the two calls. Go's standard library does not expose
// O_NOFOLLOW portably, so a small window remains; checking the
// descriptor keeps it as narrow as possible.
//
// The caller must close the returned file when done.
func OpenRegular(path string) (*os.File, os.FileInfo, error) {
	linkInfo, err := os.Lstat(path)
	if err != nil {
		return nil, nil, err
	}
	if !linkInfo.Mode().IsRegular() {
		return nil, nil, ErrNotRegularFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, nil, ErrNotRegularFile
	}

	return f, info, nil
}
