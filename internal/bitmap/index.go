// Package bitmap holds the tracking index: which files make up each component.
//
// The index is a plain value. Callers load it once, transform it through
// Get, Upsert and Remove, and save it once.
package bitmap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Index maps component ids to records, remembering insertion order.
type Index struct {
	ids     []string
	records map[string]*Record
}

func New() *Index {
	return &Index{records: make(map[string]*Record)}
}

func (ix *Index) Len() int { return len(ix.ids) }

// IDs returns component ids in insertion order.
func (ix *Index) IDs() []string {
	return append([]string(nil), ix.ids...)
}

// Get returns a copy of the record. Changes must go back through Upsert.
func (ix *Index) Get(id string) (*Record, bool) {
	rec, ok := ix.records[id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// MustGet is Get returning ErrComponentNotFound.
func (ix *Index) MustGet(id string) (*Record, error) {
	rec, ok := ix.Get(id)
	if !ok {
		return nil, NewError(id, "", ErrComponentNotFound)
	}
	return rec, nil
}

// Upsert stores a copy of rec. New ids go last; existing ids keep their position.
// The record must satisfy its invariants.
func (ix *Index) Upsert(id string, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("upsert %s: nil record", id)
	}
	if err := rec.Validate(); err != nil {
		return WithID(err, id)
	}
	if _, ok := ix.records[id]; !ok {
		ix.ids = append(ix.ids, id)
	}
	ix.records[id] = rec.Clone()
	return nil
}

// Remove deletes a component, reporting whether it existed.
func (ix *Index) Remove(id string) bool {
	if _, ok := ix.records[id]; !ok {
		return false
	}
	delete(ix.records, id)
	for i, v := range ix.ids {
		if v == id {
			ix.ids = append(ix.ids[:i], ix.ids[i+1:]...)
			break
		}
	}
	return true
}

// Clone returns a deep copy.
func (ix *Index) Clone() *Index {
	out := New()
	for _, id := range ix.ids {
		out.ids = append(out.ids, id)
		out.records[id] = ix.records[id].Clone()
	}
	return out
}

// Equal compares ids, order, and records.
func (ix *Index) Equal(o *Index) bool {
	if len(ix.ids) != len(o.ids) {
		return false
	}
	for i, id := range ix.ids {
		if o.ids[i] != id || !ix.records[id].Equal(o.records[id]) {
			return false
		}
	}
	return true
}

// Owner returns the component tracking the given workspace-relative path.
func (ix *Index) Owner(workspacePath string) (string, bool) {
	for _, id := range ix.ids {
		rec := ix.records[id]
		for _, f := range rec.files {
			if rec.WorkspacePath(f.RelativePath) == workspacePath {
				return id, true
			}
		}
	}
	return "", false
}

func (ix *Index) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range ix.ids {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encode(id)
		if err != nil {
			return nil, err
		}
		val, err := ix.records[id].MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("component %s: %w", id, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (ix *Index) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	out := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected component id, got %v", tok)
		}
		if _, dup := out.records[id]; dup {
			return fmt.Errorf("component %s listed twice", id)
		}
		rec := &Record{}
		if err := dec.Decode(rec); err != nil {
			return fmt.Errorf("component %s: %w", id, err)
		}
		out.ids = append(out.ids, id)
		out.records[id] = rec
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after index")
	}

	*ix = *out
	return nil
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
