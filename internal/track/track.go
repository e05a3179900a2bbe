// Package track declares which files belong to which component.
package track

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/keshon/cvc/internal/bitmap"
	"github.com/keshon/cvc/internal/ignore"
	"github.com/keshon/cvc/internal/logging"
	"github.com/keshon/cvc/internal/scan"
)

// Options describe one add.
type Options struct {
	// Targets are files, directories or glob patterns, absolute or relative to the working tree.
	Targets []string
	// ID groups every target into one component. Without it each target is its own component.
	ID string
	// Main overrides the main file, as a workspace path or relative to a directory target.
	Main string
	// Tests are gitignore-style patterns marking test files.
	Tests []string
	// Exclude are gitignore-style patterns for files to leave out.
	Exclude []string
}

// Change is what an add did to one component.
type Change struct {
	ID       string
	Record   *bitmap.Record
	Created  bool
	Added    []string
	Detached bool
}

type Result struct {
	Changes []Change
}

// Tracker adds files to the index.
type Tracker struct {
	Scanner       *scan.Scanner
	MainFileNames []string
	Log           *slog.Logger
}

func New(s *scan.Scanner, mainFileNames []string, log *slog.Logger) *Tracker {
	if log == nil {
		log = logging.Discard()
	}
	return &Tracker{Scanner: s, MainFileNames: mainFileNames, Log: log}
}

type target struct {
	path string
	dir  bool
}

type group struct {
	id      string
	targets []target
}

// Add resolves the targets and upserts the affected records into ix.
// Either every component is updated or ix is left as it was.
func (t *Tracker) Add(ctx context.Context, ix *bitmap.Index, opts Options) (*Result, error) {
	if len(opts.Targets) == 0 {
		return nil, fmt.Errorf("nothing to add")
	}

	var targets []target
	for _, raw := range opts.Targets {
		resolved, err := t.resolve(ctx, raw)
		if err != nil {
			return nil, err
		}
		targets = append(targets, resolved...)
	}

	var groups []group
	if opts.ID != "" {
		groups = []group{{id: opts.ID, targets: targets}}
	} else {
		for _, tg := range targets {
			groups = append(groups, group{id: defaultID(tg, t.Scanner.Root), targets: []target{tg}})
		}
	}

	exclude := ignore.New(opts.Exclude...)
	tests := ignore.New(opts.Tests...)
	claimed := map[string]string{}

	res := &Result{}
	for _, g := range groups {
		ch, err := t.build(ctx, ix, g, opts.Main, exclude, tests, claimed)
		if err != nil {
			return nil, err
		}
		res.Changes = append(res.Changes, *ch)
	}

	for _, ch := range res.Changes {
		if err := ix.Upsert(ch.ID, ch.Record); err != nil {
			return nil, err
		}
		t.Log.Debug("component tracked", "component", ch.ID, "binding", ch.Record.Binding().String(), "added", len(ch.Added))
	}
	return res, nil
}

// resolve turns one user target into files and directories. A glob expands to
// its top-most matches.
func (t *Tracker) resolve(ctx context.Context, raw string) ([]target, error) {
	rel, err := scan.Rel(t.Scanner.Root, raw)
	if err != nil {
		return nil, bitmap.NewError("", raw, fmt.Errorf("%w: %v", bitmap.ErrPathNotFound, err))
	}

	if !scan.IsGlob(rel) {
		abs := t.Scanner.Abs(rel)
		switch {
		case t.Scanner.FS.IsDir(abs):
			return []target{{path: rel, dir: true}}, nil
		case t.Scanner.FS.Exists(abs):
			return []target{{path: rel}}, nil
		}
		return nil, bitmap.NewError("", rel, bitmap.ErrPathNotFound)
	}

	matches, err := t.Scanner.Glob(ctx, rel)
	if err != nil {
		return nil, err
	}
	var out []target
	for _, m := range matches {
		nested := false
		for _, kept := range out {
			if kept.dir && scan.Within(kept.path, m) {
				nested = true
				break
			}
		}
		if !nested {
			out = append(out, target{path: m, dir: t.Scanner.FS.IsDir(t.Scanner.Abs(m))})
		}
	}
	if len(out) == 0 {
		return nil, bitmap.NewError("", rel, bitmap.ErrPathNotFound)
	}
	return out, nil
}

func (t *Tracker) build(ctx context.Context, ix *bitmap.Index, g group, main string, exclude, tests *ignore.Ignore, claimed map[string]string) (*Change, error) {
	var paths, excluded []string
	seen := map[string]bool{}
	add := func(p string) {
		if seen[p] {
			return
		}
		seen[p] = true
		if exclude.IsIgnored(p) {
			excluded = append(excluded, p)
			return
		}
		paths = append(paths, p)
	}
	for _, tg := range g.targets {
		if !tg.dir {
			add(tg.path)
			continue
		}
		files, err := t.Scanner.Files(ctx, tg.path)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			add(f)
		}
	}

	ch := &Change{ID: g.id}
	rec, exists := ix.Get(g.id)
	if !exists {
		ch.Created = true
		binding := bitmap.NoBinding()
		if len(g.targets) == 1 && g.targets[0].dir && len(excluded) == 0 {
			binding = bitmap.TrackDir(g.targets[0].path)
		}
		rec = bitmap.NewRecord(binding, "")
	}
	b := rec.Binding()

	// translate workspace paths into record paths
	toRecord := func(ws string) (string, error) {
		if !b.IsRoot() {
			return ws, nil
		}
		if !scan.Within(b.Dir(), ws) || ws == b.Dir() {
			return "", bitmap.NewError(g.id, ws, bitmap.ErrOutsideRoot)
		}
		if b.Dir() == "." {
			return ws, nil
		}
		return strings.TrimPrefix(ws, b.Dir()+"/"), nil
	}

	if b.IsDirectory() {
		detach := false
		for _, p := range paths {
			if !scan.Within(b.Dir(), p) {
				detach = true
				break
			}
		}
		for _, p := range excluded {
			if scan.Within(b.Dir(), p) {
				detach = true
				break
			}
		}
		if detach {
			rec.DetachDir()
			ch.Detached = true
			t.Log.Debug("directory binding cleared", "component", g.id, "dir", b.Dir())
		}
	}

	for _, ws := range excluded {
		if rp, err := toRecord(ws); err == nil && rp != rec.MainFile() {
			rec.Drop(rp)
		}
	}

	for _, ws := range paths {
		if owner, ok := ix.Owner(ws); ok && owner != g.id {
			return nil, bitmap.NewError(owner, ws, bitmap.ErrAlreadyTracked)
		}
		if owner, ok := claimed[ws]; ok && owner != g.id {
			return nil, bitmap.NewError(owner, ws, bitmap.ErrAlreadyTracked)
		}
		claimed[ws] = g.id

		rp, err := toRecord(ws)
		if err != nil {
			return nil, err
		}
		isTest := tests.IsIgnored(ws)
		if rec.Has(rp) {
			if isTest {
				if err := rec.SetTest(rp, true); err != nil {
					return nil, bitmap.WithID(err, g.id)
				}
			}
			continue
		}
		if err := rec.Append(bitmap.NewFileRecord(rp, isTest)); err != nil {
			return nil, bitmap.WithID(err, g.id)
		}
		ch.Added = append(ch.Added, rp)
	}

	if rec.Len() == 0 {
		return nil, bitmap.NewError(g.id, "", bitmap.ErrEmptyFiles)
	}

	if err := t.setMain(rec, g, main, toRecord); err != nil {
		return nil, err
	}
	if err := rec.Validate(); err != nil {
		return nil, bitmap.WithID(err, g.id)
	}
	ch.Record = rec
	return ch, nil
}

func (t *Tracker) setMain(rec *bitmap.Record, g group, main string, toRecord func(string) (string, error)) error {
	var dirs []string
	for _, tg := range g.targets {
		if tg.dir {
			dirs = append(dirs, tg.path)
		}
	}

	pick := func(candidates ...string) bool {
		for _, ws := range candidates {
			rp, err := toRecord(ws)
			if err != nil {
				continue
			}
			if rec.Has(rp) {
				return rec.SetMainFile(rp) == nil
			}
		}
		return false
	}

	if main != "" {
		clean := scan.Clean(main)
		candidates := []string{clean}
		for _, d := range dirs {
			candidates = append(candidates, path.Join(d, clean))
		}
		if pick(candidates...) {
			return nil
		}
		// root-bound records may name the main file relative to the root
		if rec.Binding().IsRoot() && rec.Has(clean) {
			return rec.SetMainFile(clean)
		}
		shown := clean
		if len(dirs) == 1 {
			shown = path.Join(dirs[0], clean)
		}
		return bitmap.NewError(g.id, shown, bitmap.ErrMainFileNotFound)
	}

	if rec.MainFile() != "" && rec.Has(rec.MainFile()) {
		return nil
	}

	for _, d := range dirs {
		for _, name := range t.MainFileNames {
			if pick(path.Join(d, name)) {
				return nil
			}
		}
	}
	if files := rec.Files(); len(files) == 1 {
		return rec.SetMainFile(files[0].RelativePath)
	}
	for _, d := range dirs {
		base := path.Base(d)
		for _, f := range rec.Files() {
			ws := rec.WorkspacePath(f.RelativePath)
			if path.Dir(ws) == d && strings.TrimSuffix(f.Name, path.Ext(f.Name)) == base {
				return rec.SetMainFile(f.RelativePath)
			}
		}
	}
	if len(dirs) == 0 {
		for _, name := range t.MainFileNames {
			for _, f := range rec.Files() {
				if f.Name == name {
					return rec.SetMainFile(f.RelativePath)
				}
			}
		}
	}
	return bitmap.NewError(g.id, "", bitmap.ErrMainFileUnresolved)
}

// defaultID names a component after its directory, or after its file without extension.
func defaultID(tg target, root string) string {
	if tg.dir {
		if tg.path == "." {
			return filepath.Base(root)
		}
		return tg.path
	}
	return strings.TrimSuffix(tg.path, path.Ext(tg.path))
}
