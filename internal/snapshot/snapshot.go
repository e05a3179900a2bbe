// Package snapshot stores immutable file-set versions of components.
package snapshot

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/zeebo/xxh3"
)

// File is one file as it was when the snapshot was taken.
type File struct {
	RelativePath string `json:"relativePath"`
	Name         string `json:"name"`
	Test         bool   `json:"test"`
	Hash         string `json:"hash,omitempty"`
}

// Snapshot is a recorded version of a component's file set.
// Exported is false while the snapshot is pending publication.
type Snapshot struct {
	ID        string `json:"id"`
	Component string `json:"component"`
	Parent    string `json:"parent,omitempty"`
	MainFile  string `json:"mainFile"`
	Files     []File `json:"files"`
	Exported  bool   `json:"exported"`
	Timestamp string `json:"timestamp"`
}

// Pending reports whether the snapshot still awaits export.
func (s *Snapshot) Pending() bool { return !s.Exported }

// Lookup finds a file by relative path.
func (s *Snapshot) Lookup(relativePath string) (File, bool) {
	for _, f := range s.Files {
		if f.RelativePath == relativePath {
			return f, true
		}
	}
	return File{}, false
}

func (s *Snapshot) clone() *Snapshot {
	c := *s
	c.Files = append([]File(nil), s.Files...)
	return &c
}

// HashSnapshot derives a snapshot id from its content and parent.
// File order does not matter.
func HashSnapshot(s *Snapshot) string {
	files := append([]File(nil), s.Files...)
	sort.Slice(files, func(i, j int) bool { return files[i].RelativePath < files[j].RelativePath })

	data := make([]byte, 0, 64+len(files)*96)
	data = append(data, s.Component...)
	data = append(data, 0)
	data = append(data, s.Parent...)
	data = append(data, 0)
	data = append(data, s.MainFile...)
	data = append(data, '\n')
	for _, f := range files {
		data = append(data, f.RelativePath...)
		data = append(data, 0)
		data = strconv.AppendBool(data, f.Test)
		data = append(data, 0)
		data = append(data, f.Hash...)
		data = append(data, '\n')
	}
	return fmt.Sprintf("%x", xxh3.Hash128(data).Bytes())
}
