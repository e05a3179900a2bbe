package fs

import (
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/zeebo/xxh3"
)

// OSFS implements FS on the real filesystem. Index and snapshot writes go
// through atomic replace; checksums read files through mmap.
type OSFS struct{}

func NewOSFS() *OSFS {
	return &OSFS{}
}

func (r *OSFS) Open(path string) (io.ReadSeekCloser, error) {
	f, err := ops.Open(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *OSFS) Stat(path string) (os.FileInfo, error)      { return ops.Stat(path) }
func (r *OSFS) ReadFile(path string) ([]byte, error)       { return ops.ReadFile(path) }
func (r *OSFS) ReadDir(path string) ([]os.DirEntry, error) { return ops.ReadDir(path) }
func (r *OSFS) MkdirAll(path string, perm os.FileMode) error {
	return ops.MkdirAll(path, perm)
}
func (r *OSFS) Remove(path string) error             { return ops.Remove(path) }
func (r *OSFS) Rename(oldPath, newPath string) error { return ops.Rename(oldPath, newPath) }

func (r *OSFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return ops.WriteFile(path, data, perm)
}

func (r *OSFS) WriteFileAtomic(path string, data []byte) error {
	return ops.WriteAtomic(path, bytes.NewReader(data))
}

// Checksum maps the file into memory and hashes it without copying it onto the heap.
func (r *OSFS) Checksum(path string) (string, error) {
	m, err := ops.Mmap(path)
	if err != nil {
		return "", err
	}
	defer m.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, io.NewSectionReader(m, 0, int64(m.Len()))); err != nil {
		return "", err
	}
	return formatSum(h.Sum128()), nil
}

func (r *OSFS) IsNotExist(err error) bool { return errors.Is(err, fs.ErrNotExist) }

func (r *OSFS) IsDir(path string) bool {
	fi, err := ops.Stat(path)
	return err == nil && fi.IsDir()
}

func (r *OSFS) Exists(path string) bool {
	_, err := ops.Stat(path)
	return err == nil
}
