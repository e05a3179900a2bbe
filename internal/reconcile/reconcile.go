// Package reconcile keeps directory-bound and root-bound records in step
// with the files actually present on disk.
package reconcile

import (
	"context"
	"log/slog"
	"path"
	"strings"

	"github.com/keshon/cvc/internal/bitmap"
	"github.com/keshon/cvc/internal/ignore"
	"github.com/keshon/cvc/internal/logging"
	"github.com/keshon/cvc/internal/scan"
)

// Rename is an inferred move of a non-main file.
type Rename struct {
	From string
	To   string
}

// Result describes one reconciliation. Paths are relative to the record.
type Result struct {
	ID      string
	Record  *bitmap.Record
	Added   []string
	Removed []string
	Renamed []Rename
}

// Changed reports whether Record differs from the input record.
func (r *Result) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0 || len(r.Renamed) > 0
}

// Reconciler rescans bound directories. It never persists anything itself.
type Reconciler struct {
	Scanner *scan.Scanner
	// Links flags dependency link files, which are never tracked.
	Links ignore.Evaluator
	// Generated lists file names written at the top of a rootDir on import.
	Generated []string
	Workers   int
	Log       *slog.Logger
}

func New(s *scan.Scanner, links ignore.Evaluator, generated []string, workers int, log *slog.Logger) *Reconciler {
	if links == nil {
		links = ignore.Nothing
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Reconciler{Scanner: s, Links: links, Generated: generated, Workers: workers, Log: log}
}

// Reconcile rescans the directory rec is bound to and returns the updated record.
// Unbound records come back unchanged. A record that already breaks the index
// invariants fails before any scan. If the main file is gone the error wraps
// bitmap.ErrMainFileMissing and the returned Result carries the untouched record.
func (r *Reconciler) Reconcile(ctx context.Context, id string, rec *bitmap.Record) (*Result, error) {
	res := &Result{ID: id, Record: rec.Clone()}
	if err := rec.Validate(); err != nil {
		r.Log.Warn("invalid record", "component", id, "err", err)
		return res, bitmap.WithID(err, id)
	}
	b := rec.Binding()
	if !b.Reconciled() {
		return res, nil
	}

	present, err := r.Present(ctx, b)
	if err != nil {
		return res, err
	}

	known := make(map[string]bool, rec.Len())
	for _, p := range rec.Paths() {
		known[p] = true
	}
	onDisk := make(map[string]bool, len(present))
	for _, p := range present {
		onDisk[p] = true
		if !known[p] {
			res.Added = append(res.Added, p)
		}
	}
	for _, p := range rec.Paths() {
		if !onDisk[p] {
			res.Removed = append(res.Removed, p)
		}
	}

	for _, p := range res.Removed {
		if p == rec.MainFile() {
			r.Log.Warn("main file missing", "component", id, "mainFile", p)
			return &Result{ID: id, Record: rec.Clone()}, bitmap.NewError(id, p, bitmap.ErrMainFileMissing)
		}
	}

	next := rec.Clone()
	switch {
	case len(res.Removed) == 0 && len(res.Added) == 0:
		return res, nil

	case len(res.Removed) == 1 && len(res.Added) == 1:
		from, to := res.Removed[0], res.Added[0]
		if err := next.Rename(from, to); err != nil {
			return &Result{ID: id, Record: rec.Clone()}, bitmap.WithID(err, id)
		}
		r.Log.Debug("inferred rename", "component", id, "from", from, "to", to)
		res.Renamed = []Rename{{From: from, To: to}}
		res.Added, res.Removed = nil, nil

	default:
		for _, p := range res.Removed {
			next.Drop(p)
			r.Log.Debug("file removed", "component", id, "path", p)
		}
		for _, p := range res.Added {
			if err := next.Append(bitmap.NewFileRecord(p, false)); err != nil {
				return &Result{ID: id, Record: rec.Clone()}, bitmap.WithID(err, id)
			}
			r.Log.Debug("file discovered", "component", id, "path", p)
		}
	}

	if err := next.Validate(); err != nil {
		return &Result{ID: id, Record: rec.Clone()}, bitmap.WithID(err, id)
	}
	res.Record = next
	return res, nil
}

// Present lists the files under a bound directory, relative to the record.
// Ignored paths, link files, and generated rootDir files are left out.
func (r *Reconciler) Present(ctx context.Context, b bitmap.Binding) ([]string, error) {
	dir := b.Dir()
	if !r.Scanner.FS.IsDir(r.Scanner.Abs(dir)) {
		return nil, nil
	}

	skip := func(rel string) bool {
		if strings.HasSuffix(rel, "/") {
			return false
		}
		if r.Links.IsIgnored(rel) {
			r.Log.Debug("skipping link file", "path", rel)
			return true
		}
		if b.IsRoot() {
			for _, name := range r.Generated {
				if rel == path.Join(dir, name) {
					return true
				}
			}
		}
		return false
	}

	paths, err := r.Scanner.FilesFunc(ctx, dir, skip)
	if err != nil {
		return nil, err
	}
	if !b.IsRoot() {
		return paths, nil
	}

	prefix := dir + "/"
	if dir == "." {
		return paths, nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = strings.TrimPrefix(p, prefix)
	}
	return out, nil
}
