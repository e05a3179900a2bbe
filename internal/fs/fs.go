package fs

import (
	"io"
	"os"
)

// FS abstracts filesystem operations.
type FS interface {
	Open(path string) (io.ReadSeekCloser, error)
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
	// WriteFileAtomic replaces path so readers observe either the old or the new content.
	WriteFileAtomic(path string, data []byte) error
	MkdirAll(path string, perm os.FileMode) error
	Remove(path string) error
	Rename(oldPath, newPath string) error
	Stat(path string) (os.FileInfo, error)
	ReadDir(path string) ([]os.DirEntry, error)
	// Checksum returns the hex xxh3-128 digest of the file content.
	Checksum(path string) (string, error)
	IsNotExist(err error) bool
	Exists(path string) bool
	IsDir(path string) bool
}
