package bitmap

import (
	"encoding/json"
	"fmt"
	"path"
)

// FileRecord is one tracked file. RelativePath is relative to the workspace
// root, or to the rootDir for root-bound components.
type FileRecord struct {
	RelativePath string `json:"relativePath"`
	Test         bool   `json:"test"`
	Name         string `json:"name"`
}

// NewFileRecord derives Name from the path.
func NewFileRecord(relativePath string, test bool) FileRecord {
	return FileRecord{RelativePath: relativePath, Test: test, Name: path.Base(relativePath)}
}

// Record is the index entry of one component: its ordered files, its main
// file, and how the file set is derived.
type Record struct {
	files    []FileRecord
	mainFile string
	binding  Binding
}

// NewRecord builds a record. It does not validate; call Validate before persisting.
func NewRecord(binding Binding, mainFile string, files ...FileRecord) *Record {
	return &Record{
		files:    append([]FileRecord(nil), files...),
		mainFile: mainFile,
		binding:  binding,
	}
}

func (r *Record) Binding() Binding { return r.binding }
func (r *Record) MainFile() string { return r.mainFile }
func (r *Record) Len() int         { return len(r.files) }

// Files returns a copy of the ordered file list.
func (r *Record) Files() []FileRecord {
	return append([]FileRecord(nil), r.files...)
}

// Paths returns the relative paths in order.
func (r *Record) Paths() []string {
	out := make([]string, len(r.files))
	for i, f := range r.files {
		out[i] = f.RelativePath
	}
	return out
}

// Lookup returns the file with the given relative path and its position.
func (r *Record) Lookup(relativePath string) (FileRecord, int, bool) {
	for i, f := range r.files {
		if f.RelativePath == relativePath {
			return f, i, true
		}
	}
	return FileRecord{}, -1, false
}

func (r *Record) Has(relativePath string) bool {
	_, _, ok := r.Lookup(relativePath)
	return ok
}

// WorkspacePath maps a record path to a workspace-relative path.
func (r *Record) WorkspacePath(relativePath string) string {
	if r.binding.IsRoot() {
		return path.Join(r.binding.dir, relativePath)
	}
	return relativePath
}

// Append adds f at the end of the list.
func (r *Record) Append(f FileRecord) error {
	if r.Has(f.RelativePath) {
		return NewError("", f.RelativePath, ErrDuplicatePath)
	}
	if f.Name == "" {
		f.Name = path.Base(f.RelativePath)
	}
	r.files = append(r.files, f)
	return nil
}

// Drop removes a path, reporting whether it was present.
func (r *Record) Drop(relativePath string) bool {
	_, i, ok := r.Lookup(relativePath)
	if !ok {
		return false
	}
	r.files = append(r.files[:i], r.files[i+1:]...)
	return true
}

// Rename rewrites a file in place, keeping its test flag and position.
func (r *Record) Rename(from, to string) error {
	_, i, ok := r.Lookup(from)
	if !ok {
		return NewError("", from, ErrPathNotFound)
	}
	if from != to && r.Has(to) {
		return NewError("", to, ErrDuplicatePath)
	}
	r.files[i].RelativePath = to
	r.files[i].Name = path.Base(to)
	if r.mainFile == from {
		r.mainFile = to
	}
	return nil
}

// SetTest updates the test flag of an existing file.
func (r *Record) SetTest(relativePath string, test bool) error {
	_, i, ok := r.Lookup(relativePath)
	if !ok {
		return NewError("", relativePath, ErrPathNotFound)
	}
	r.files[i].Test = test
	return nil
}

// SetMainFile designates the main file. It must already be tracked.
func (r *Record) SetMainFile(relativePath string) error {
	if !r.Has(relativePath) {
		return NewError("", relativePath, ErrMainFileNotFound)
	}
	r.mainFile = relativePath
	return nil
}

// DetachDir turns a directory-bound record into an explicit file list.
// There is no way back; other bindings are left alone.
func (r *Record) DetachDir() bool {
	if !r.binding.IsDirectory() {
		return false
	}
	r.binding = NoBinding()
	return true
}

// Validate checks the record invariants: files present and unique, main file among them.
func (r *Record) Validate() error {
	if len(r.files) == 0 {
		return NewError("", "", ErrEmptyFiles)
	}
	seen := make(map[string]struct{}, len(r.files))
	for _, f := range r.files {
		if _, dup := seen[f.RelativePath]; dup {
			return NewError("", f.RelativePath, ErrDuplicatePath)
		}
		seen[f.RelativePath] = struct{}{}
	}
	if _, ok := seen[r.mainFile]; !ok {
		return NewError("", r.mainFile, ErrMainFileNotFound)
	}
	return nil
}

// Clone returns a deep copy.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	return NewRecord(r.binding, r.mainFile, r.files...)
}

// Equal compares everything that is persisted, including order.
func (r *Record) Equal(o *Record) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.binding != o.binding || r.mainFile != o.mainFile || len(r.files) != len(o.files) {
		return false
	}
	for i := range r.files {
		if r.files[i] != o.files[i] {
			return false
		}
	}
	return true
}

type recordJSON struct {
	Files    []FileRecord `json:"files"`
	MainFile string       `json:"mainFile"`
	TrackDir string       `json:"trackDir,omitempty"`
	RootDir  string       `json:"rootDir,omitempty"`
}

func (r *Record) MarshalJSON() ([]byte, error) {
	w := recordJSON{Files: r.files, MainFile: r.mainFile}
	if w.Files == nil {
		w.Files = []FileRecord{}
	}
	switch r.binding.kind {
	case DirectoryBound:
		w.TrackDir = r.binding.dir
	case RootBound:
		w.RootDir = r.binding.dir
	}
	return encode(w)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var b Binding
	switch {
	case w.TrackDir != "" && w.RootDir != "":
		return fmt.Errorf("both trackDir %q and rootDir %q are set", w.TrackDir, w.RootDir)
	case w.TrackDir != "":
		b = Binding{kind: DirectoryBound, dir: w.TrackDir}
	case w.RootDir != "":
		b = Binding{kind: RootBound, dir: w.RootDir}
	}
	for i := range w.Files {
		if w.Files[i].Name == "" {
			w.Files[i].Name = path.Base(w.Files[i].RelativePath)
		}
	}
	*r = Record{files: w.Files, mainFile: w.MainFile, binding: b}
	return nil
}
