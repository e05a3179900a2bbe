package fs

import (
	"io"
	"os"

	"github.com/natefinch/atomic"
	"golang.org/x/exp/mmap"
)

// Ops are the os-level calls OSFS goes through. Tests swap them with Override.
type Ops struct {
	Open        func(string) (*os.File, error)
	ReadFile    func(string) ([]byte, error)
	WriteFile   func(string, []byte, os.FileMode) error
	WriteAtomic func(string, io.Reader) error
	Stat        func(string) (os.FileInfo, error)
	ReadDir     func(string) ([]os.DirEntry, error)
	Remove      func(string) error
	Rename      func(string, string) error
	MkdirAll    func(string, os.FileMode) error
	Mmap        func(string) (*mmap.ReaderAt, error)
}

var ops = Ops{
	Open:        os.Open,
	ReadFile:    os.ReadFile,
	WriteFile:   os.WriteFile,
	WriteAtomic: atomic.WriteFile,
	Stat:        os.Stat,
	ReadDir:     os.ReadDir,
	Remove:      os.Remove,
	Rename:      os.Rename,
	MkdirAll:    os.MkdirAll,
	Mmap:        mmap.Open,
}

// Override installs the non-nil fields of o and returns a func that restores
// the previous set. Not safe for concurrent use.
func Override(o Ops) (restore func()) {
	prev := ops
	if o.Open != nil {
		ops.Open = o.Open
	}
	if o.ReadFile != nil {
		ops.ReadFile = o.ReadFile
	}
	if o.WriteFile != nil {
		ops.WriteFile = o.WriteFile
	}
	if o.WriteAtomic != nil {
		ops.WriteAtomic = o.WriteAtomic
	}
	if o.Stat != nil {
		ops.Stat = o.Stat
	}
	if o.ReadDir != nil {
		ops.ReadDir = o.ReadDir
	}
	if o.Remove != nil {
		ops.Remove = o.Remove
	}
	if o.Rename != nil {
		ops.Rename = o.Rename
	}
	if o.MkdirAll != nil {
		ops.MkdirAll = o.MkdirAll
	}
	if o.Mmap != nil {
		ops.Mmap = o.Mmap
	}
	return func() { ops = prev }
}
