package fs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryFS is a pure in-memory filesystem for tests or lightweight storage.
// Both relative and absolute paths are supported; they live in separate trees.
type MemoryFS struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]struct{}
}

func NewMemoryFS() *MemoryFS {
	f := &MemoryFS{
		files: make(map[string][]byte),
		dirs:  make(map[string]struct{}),
	}
	f.dirs["/"] = struct{}{}
	f.dirs["."] = struct{}{}
	return f
}

// normalize paths
func clean(p string) string {
	if p == "" {
		return "."
	}
	return path.Clean(filepath.ToSlash(p))
}

func (f *MemoryFS) ensureDirExists(p string) error {
	if _, ok := f.dirs[clean(p)]; !ok {
		return fs.ErrNotExist
	}
	return nil
}

// FS Interface Implementation

func (f *MemoryFS) Open(p string) (io.ReadSeekCloser, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, ok := f.files[clean(p)]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return &memReadSeekCloser{Reader: bytes.NewReader(data)}, nil
}

type memReadSeekCloser struct {
	*bytes.Reader
}

func (m *memReadSeekCloser) Close() error { return nil }

func (f *MemoryFS) ReadFile(p string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, ok := f.files[clean(p)]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return append([]byte(nil), data...), nil
}

func (f *MemoryFS) WriteFile(p string, data []byte, perm os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(p, data)
}

func (f *MemoryFS) WriteFileAtomic(p string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.write(p, data)
}

func (f *MemoryFS) write(p string, data []byte) error {
	p = clean(p)
	dir := path.Dir(p)
	if err := f.ensureDirExists(dir); err != nil {
		return fmt.Errorf("write: dir %q does not exist", dir)
	}
	if _, ok := f.dirs[p]; ok {
		return fmt.Errorf("write: %q is a directory", p)
	}
	f.files[p] = append([]byte(nil), data...)
	return nil
}

func (f *MemoryFS) MkdirAll(p string, perm os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p = clean(p)
	cur := ""
	if strings.HasPrefix(p, "/") {
		cur = "/"
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == "" || seg == "." {
			continue
		}
		cur = path.Join(cur, seg)
		if _, ok := f.files[cur]; ok {
			return fmt.Errorf("mkdir %q: not a directory", cur)
		}
		f.dirs[cur] = struct{}{}
	}
	return nil
}

func (f *MemoryFS) Remove(p string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p = clean(p)
	if _, ok := f.files[p]; ok {
		delete(f.files, p)
		return nil
	}
	if _, ok := f.dirs[p]; ok {
		prefix := p + "/"
		for fp := range f.files {
			if strings.HasPrefix(fp, prefix) {
				return fmt.Errorf("remove %q: directory not empty", p)
			}
		}
		delete(f.dirs, p)
		return nil
	}
	return fs.ErrNotExist
}

func (f *MemoryFS) Rename(oldp, newp string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	oldp, newp = clean(oldp), clean(newp)

	if f.ensureDirExists(path.Dir(newp)) != nil {
		return fs.ErrNotExist
	}

	// file rename
	if data, ok := f.files[oldp]; ok {
		delete(f.files, oldp)
		f.files[newp] = data
		return nil
	}

	// dir rename moves the whole subtree
	if _, ok := f.dirs[oldp]; ok {
		prefix := oldp + "/"
		for dp := range f.dirs {
			if dp == oldp || strings.HasPrefix(dp, prefix) {
				delete(f.dirs, dp)
				f.dirs[newp+strings.TrimPrefix(dp, oldp)] = struct{}{}
			}
		}
		for fp, data := range f.files {
			if strings.HasPrefix(fp, prefix) {
				delete(f.files, fp)
				f.files[newp+strings.TrimPrefix(fp, oldp)] = data
			}
		}
		return nil
	}

	return fs.ErrNotExist
}

func (f *MemoryFS) Stat(p string) (os.FileInfo, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p = clean(p)
	if data, ok := f.files[p]; ok {
		return &fakeInfo{name: path.Base(p), size: int64(len(data)), dir: false}, nil
	}
	if _, ok := f.dirs[p]; ok {
		return &fakeInfo{name: path.Base(p), dir: true}, nil
	}
	return nil, fs.ErrNotExist
}

// ReadDir lists direct children sorted by name, like os.ReadDir.
func (f *MemoryFS) ReadDir(p string) ([]os.DirEntry, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p = clean(p)
	if _, ok := f.dirs[p]; !ok {
		return nil, fs.ErrNotExist
	}

	var prefix string
	switch p {
	case "/":
		prefix = "/"
	case ".":
		prefix = ""
	default:
		prefix = p + "/"
	}

	seen := map[string]bool{}
	var out []os.DirEntry

	child := func(full string) (string, bool) {
		if !strings.HasPrefix(full, prefix) || full == p {
			return "", false
		}
		// relative listing must not pick up the absolute tree
		if prefix == "" && strings.HasPrefix(full, "/") {
			return "", false
		}
		name := strings.Split(strings.TrimPrefix(full, prefix), "/")[0]
		if name == "" || name == "." || seen[name] {
			return "", false
		}
		seen[name] = true
		return name, true
	}

	for dp := range f.dirs {
		if name, ok := child(dp); ok {
			out = append(out, fakeDirEntry{name: name, isDir: true})
		}
	}
	for fp := range f.files {
		if name, ok := child(fp); ok {
			out = append(out, fakeDirEntry{name: name, isDir: false})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out, nil
}

func (f *MemoryFS) Checksum(p string) (string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	data, ok := f.files[clean(p)]
	if !ok {
		return "", fs.ErrNotExist
	}
	return Sum(data), nil
}

func (f *MemoryFS) IsNotExist(err error) bool { return errors.Is(err, fs.ErrNotExist) }

func (f *MemoryFS) IsDir(p string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.dirs[clean(p)]
	return ok
}

func (f *MemoryFS) Exists(p string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	p = clean(p)
	_, f1 := f.files[p]
	_, d1 := f.dirs[p]
	return f1 || d1
}

// Helpers

type fakeInfo struct {
	name string
	size int64
	dir  bool
}

func (f *fakeInfo) Name() string { return f.name }
func (f *fakeInfo) Size() int64  { return f.size }
func (f *fakeInfo) Mode() fs.FileMode {
	if f.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}
func (f *fakeInfo) ModTime() time.Time { return time.Time{} }
func (f *fakeInfo) IsDir() bool        { return f.dir }
func (f *fakeInfo) Sys() interface{}   { return nil }

type fakeDirEntry struct {
	name  string
	isDir bool
}

func (d fakeDirEntry) Name() string { return d.name }
func (d fakeDirEntry) IsDir() bool  { return d.isDir }
func (d fakeDirEntry) Type() fs.FileMode {
	if d.isDir {
		return fs.ModeDir
	}
	return 0
}
func (d fakeDirEntry) Info() (os.FileInfo, error) { return &fakeInfo{name: d.name, dir: d.isDir}, nil }
