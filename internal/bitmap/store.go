package bitmap

import (
	"fmt"
	"path/filepath"

	"github.com/keshon/cvc/internal/fs"
	"github.com/keshon/cvc/internal/util"
)

// Store persists an Index as a single JSON file.
type Store struct {
	FS   fs.FS
	Path string
}

func NewStore(fsys fs.FS, path string) *Store {
	return &Store{FS: fsys, Path: path}
}

// Load returns the persisted index, or an empty one if none was saved yet.
func (s *Store) Load() (*Index, error) {
	data, err := s.FS.ReadFile(s.Path)
	if err != nil {
		if s.FS.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("read index %s: %w", s.Path, err)
	}
	ix, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.Path, err)
	}
	return ix, nil
}

// Save atomically replaces the persisted index.
func (s *Store) Save(ix *Index) error {
	data, err := Encode(ix)
	if err != nil {
		return err
	}
	if err := s.FS.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	if err := s.FS.WriteFileAtomic(s.Path, data); err != nil {
		return fmt.Errorf("write index %s: %w", s.Path, err)
	}
	return nil
}

// Encode renders the index in its persisted form.
func Encode(ix *Index) ([]byte, error) {
	data, err := util.MarshalJSON(ix)
	if err != nil {
		return nil, fmt.Errorf("encode index: %w", err)
	}
	return data, nil
}

// Decode parses the persisted form. Any failure is ErrCorruptIndex.
func Decode(data []byte) (*Index, error) {
	ix := New()
	if len(data) == 0 {
		return ix, nil
	}
	if err := ix.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	return ix, nil
}
