package snapshot

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/keshon/cvc/internal/fs"
	"github.com/keshon/cvc/internal/util"
)

const headFile = "HEAD"

// ErrEmptySnapshot is returned when recording a snapshot without files.
var ErrEmptySnapshot = errors.New("snapshot has no files")

// Store keeps snapshots under Root, one directory per component:
//
//	<Root>/<escaped component id>/HEAD
//	<Root>/<escaped component id>/<snapshot id>.json
type Store struct {
	FS   fs.FS
	Root string
	Now  func() time.Time

	cache *lru.Cache[string, *Snapshot]
}

func NewStore(fsys fs.FS, root string, cacheSize int) (*Store, error) {
	if cacheSize < 1 {
		cacheSize = 1
	}
	cache, err := lru.New[string, *Snapshot](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("snapshot cache: %w", err)
	}
	return &Store{FS: fsys, Root: root, Now: time.Now, cache: cache}, nil
}

func (s *Store) componentDir(component string) string {
	return filepath.Join(s.Root, url.PathEscape(component))
}

func (s *Store) snapshotPath(component, id string) string {
	return filepath.Join(s.componentDir(component), id+".json")
}

func cacheKey(component, id string) string { return component + "\x00" + id }

// Head returns the id of the latest snapshot, or "" when there is none.
func (s *Store) Head(component string) (string, error) {
	data, err := s.FS.ReadFile(filepath.Join(s.componentDir(component), headFile))
	if err != nil {
		if s.FS.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read HEAD of %s: %w", component, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Get loads one snapshot by id.
func (s *Store) Get(component, id string) (*Snapshot, error) {
	if snap, ok := s.cache.Get(cacheKey(component, id)); ok {
		return snap.clone(), nil
	}
	var snap Snapshot
	if err := util.ReadJSON(s.FS, s.snapshotPath(component, id), &snap); err != nil {
		return nil, fmt.Errorf("failed to read snapshot %s of %s: %w", id, component, err)
	}
	s.cache.Add(cacheKey(component, id), snap.clone())
	return &snap, nil
}

// Latest returns the most recent snapshot, or nil when the component was never snapshotted.
func (s *Store) Latest(component string) (*Snapshot, error) {
	id, err := s.Head(component)
	if err != nil || id == "" {
		return nil, err
	}
	return s.Get(component, id)
}

// Record stores snap as the new latest snapshot of component. Parent, ID and
// Timestamp are filled in; the stored copy is returned.
func (s *Store) Record(component string, snap Snapshot) (*Snapshot, error) {
	if len(snap.Files) == 0 {
		return nil, fmt.Errorf("%s: %w", component, ErrEmptySnapshot)
	}
	parent, err := s.Head(component)
	if err != nil {
		return nil, err
	}

	snap.Component = component
	snap.Parent = parent
	snap.Files = append([]File(nil), snap.Files...)
	snap.ID = HashSnapshot(&snap)
	snap.Timestamp = s.Now().UTC().Format(time.RFC3339)

	if err := s.write(&snap); err != nil {
		return nil, err
	}
	if err := s.FS.WriteFileAtomic(filepath.Join(s.componentDir(component), headFile), []byte(snap.ID)); err != nil {
		return nil, fmt.Errorf("write HEAD of %s: %w", component, err)
	}
	return snap.clone(), nil
}

// MarkExported flags the latest snapshot as published.
func (s *Store) MarkExported(component string) (*Snapshot, error) {
	snap, err := s.Latest(component)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("component %s has no snapshot to export", component)
	}
	if snap.Exported {
		return snap, nil
	}
	snap.Exported = true
	if err := s.write(snap); err != nil {
		return nil, err
	}
	return snap.clone(), nil
}

// History walks from the latest snapshot back through its parents.
func (s *Store) History(component string) ([]*Snapshot, error) {
	id, err := s.Head(component)
	if err != nil {
		return nil, err
	}
	var out []*Snapshot
	seen := map[string]bool{}
	for id != "" {
		if seen[id] {
			return nil, fmt.Errorf("snapshot history of %s loops at %s", component, id)
		}
		seen[id] = true
		snap, err := s.Get(component, id)
		if err != nil {
			return nil, err
		}
		out = append(out, snap)
		id = snap.Parent
	}
	return out, nil
}

// Remove deletes every snapshot of component.
func (s *Store) Remove(component string) error {
	dir := s.componentDir(component)
	entries, err := s.FS.ReadDir(dir)
	if err != nil {
		if s.FS.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("list snapshots of %s: %w", component, err)
	}
	for _, e := range entries {
		if err := s.FS.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("remove %s: %w", e.Name(), err)
		}
		s.cache.Remove(cacheKey(component, strings.TrimSuffix(e.Name(), ".json")))
	}
	return s.FS.Remove(dir)
}

func (s *Store) write(snap *Snapshot) error {
	dir := s.componentDir(snap.Component)
	if err := s.FS.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshots dir: %w", err)
	}
	if err := util.WriteJSON(s.FS, s.snapshotPath(snap.Component, snap.ID), snap); err != nil {
		return fmt.Errorf("write snapshot %s: %w", snap.ID, err)
	}
	s.cache.Add(cacheKey(snap.Component, snap.ID), snap.clone())
	return nil
}
