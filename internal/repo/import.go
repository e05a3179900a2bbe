package repo

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/keshon/cvc/internal/bitmap"
	"github.com/keshon/cvc/internal/scan"
	"github.com/keshon/cvc/internal/snapshot"
	"github.com/keshon/cvc/internal/util"
)

const manifestFile = "package.json"

// ImportSpec describes a component materialized from a published snapshot.
// Files and MainFile are relative to RootDir. Without Files, everything under
// RootDir is taken.
type ImportSpec struct {
	ID       string
	RootDir  string
	MainFile string
	Files    []bitmap.FileRecord
}

type manifest struct {
	Name string `json:"name"`
	Main string `json:"main"`
}

// Import tracks an already materialized component as root-bound and records
// its content as an exported snapshot, so it starts out unchanged.
func (r *Repository) Import(ctx context.Context, spec ImportSpec) (*snapshot.Snapshot, error) {
	if spec.ID == "" || spec.MainFile == "" {
		return nil, fmt.Errorf("import needs a component id and a main file")
	}
	rootDir, err := scan.Rel(r.Config.WorkingTreeDir, spec.RootDir)
	if err != nil {
		return nil, err
	}
	if !r.FS.IsDir(r.Scanner.Abs(rootDir)) {
		return nil, bitmap.NewError(spec.ID, rootDir, bitmap.ErrPathNotFound)
	}

	ix, err := r.Index.Load()
	if err != nil {
		return nil, err
	}
	if _, exists := ix.Get(spec.ID); exists {
		return nil, fmt.Errorf("component %s is already tracked", spec.ID)
	}

	binding := bitmap.RootDir(rootDir)
	files := spec.Files
	if len(files) == 0 {
		present, err := r.Reconciler.Present(ctx, binding)
		if err != nil {
			return nil, err
		}
		for _, p := range present {
			files = append(files, bitmap.NewFileRecord(p, false))
		}
	}
	rec := bitmap.NewRecord(binding, scan.Clean(spec.MainFile), files...)
	for _, f := range rec.Files() {
		ws := rec.WorkspacePath(f.RelativePath)
		if owner, ok := ix.Owner(ws); ok {
			return nil, bitmap.NewError(owner, ws, bitmap.ErrAlreadyTracked)
		}
	}
	if err := rec.Validate(); err != nil {
		return nil, bitmap.WithID(err, spec.ID)
	}

	captured, err := r.Status.Capture(ctx, spec.ID, rec)
	if err != nil {
		return nil, err
	}
	if err := r.writeManifest(spec.ID, rec); err != nil {
		return nil, err
	}
	if _, err := r.Snapshots.Record(spec.ID, snapshot.Snapshot{MainFile: rec.MainFile(), Files: captured}); err != nil {
		return nil, err
	}
	snap, err := r.Snapshots.MarkExported(spec.ID)
	if err != nil {
		return nil, err
	}

	if err := ix.Upsert(spec.ID, rec); err != nil {
		return nil, err
	}
	if err := r.Index.Save(ix); err != nil {
		return nil, err
	}
	return snap, nil
}

// writeManifest drops a package.json at the component root when the workspace
// treats it as a generated file and none exists yet.
func (r *Repository) writeManifest(id string, rec *bitmap.Record) error {
	generated := false
	for _, name := range r.Config.GeneratedFiles {
		if name == manifestFile {
			generated = true
			break
		}
	}
	p := r.Scanner.Abs(rec.WorkspacePath(manifestFile))
	if !generated || r.FS.Exists(p) {
		return nil
	}
	if err := util.WriteJSON(r.FS, p, manifest{Name: id, Main: filepath.ToSlash(rec.MainFile())}); err != nil {
		return fmt.Errorf("write %s: %w", manifestFile, err)
	}
	return nil
}
