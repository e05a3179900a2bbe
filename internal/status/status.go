// Package status classifies components against their latest snapshot.
package status

import (
	"context"
	"fmt"
	"log/slog"
	"path"

	"github.com/keshon/cvc/internal/bitmap"
	"github.com/keshon/cvc/internal/ignore"
	"github.com/keshon/cvc/internal/logging"
	"github.com/keshon/cvc/internal/reconcile"
	"github.com/keshon/cvc/internal/snapshot"
	"github.com/keshon/cvc/internal/util"
)

// State is the lifecycle classification of a component.
type State int

const (
	// New components have never been snapshotted.
	New State = iota
	// Modified components differ from their latest snapshot.
	Modified
	// Staged components match a snapshot that has not been exported yet.
	Staged
	// Unchanged components match an exported snapshot.
	Unchanged
)

func (s State) String() string {
	switch s {
	case New:
		return "new"
	case Modified:
		return "modified"
	case Staged:
		return "staged"
	case Unchanged:
		return "unchanged"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Snapshots is the part of the snapshot store status reads.
type Snapshots interface {
	Latest(component string) (*snapshot.Snapshot, error)
}

// Component is the outcome for one component: either a State or an Err, never both.
type Component struct {
	ID    string
	State State
	Err   error
	// Reconcile is set when the component is bound to a directory.
	Reconcile *reconcile.Result
	// Changes lists record paths that differ from the latest snapshot.
	Changes []string
}

// Report holds per-component outcomes in index order.
type Report struct {
	Components []Component
	// IndexChanged is true when reconciliation rewrote records; the caller must save.
	IndexChanged bool
}

// Failed returns the components that could not be classified.
func (r *Report) Failed() []Component {
	var out []Component
	for _, c := range r.Components {
		if c.Err != nil {
			out = append(out, c)
		}
	}
	return out
}

// Get returns the outcome for one component.
func (r *Report) Get(id string) (Component, bool) {
	for _, c := range r.Components {
		if c.ID == id {
			return c, true
		}
	}
	return Component{}, false
}

type Engine struct {
	Reconciler *reconcile.Reconciler
	Snapshots  Snapshots
	Workers    int
	Log        *slog.Logger
}

func NewEngine(r *reconcile.Reconciler, snaps Snapshots, workers int, log *slog.Logger) *Engine {
	if log == nil {
		log = logging.Discard()
	}
	return &Engine{Reconciler: r, Snapshots: snaps, Workers: workers, Log: log}
}

// Status reconciles ix in place and classifies the requested components, or
// all of them when ids is empty. One component failing never aborts the others.
// A non-nil error means the pass was interrupted and ix must not be saved.
func (e *Engine) Status(ctx context.Context, ix *bitmap.Index, ids ...string) (*Report, error) {
	rep, err := e.Reconciler.Index(ctx, ix)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		ids = ix.IDs()
	}

	out := make([]Component, len(ids))
	positions := make([]int, len(ids))
	for i := range positions {
		positions[i] = i
	}

	err = util.Parallel(ctx, positions, e.Workers, func(ctx context.Context, i int) error {
		id := ids[i]
		out[i] = Component{ID: id, Reconcile: rep.Results[id]}
		if err, failed := rep.Errors[id]; failed {
			out[i].Err = err
			return nil
		}
		rec, ok := ix.Get(id)
		if !ok {
			out[i].Err = bitmap.NewError(id, "", bitmap.ErrComponentNotFound)
			return nil
		}
		state, changes, err := e.classify(ctx, id, rec, rep.Results[id])
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		out[i].State, out[i].Changes, out[i].Err = state, changes, err
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range out {
		if c.Err != nil {
			e.Log.Warn("status failed", "component", c.ID, "err", c.Err)
		}
	}
	return &Report{Components: out, IndexChanged: rep.Changed()}, nil
}

func (e *Engine) classify(ctx context.Context, id string, rec *bitmap.Record, res *reconcile.Result) (State, []string, error) {
	current, err := e.capture(ctx, id, rec, false)
	if err != nil {
		return 0, nil, err
	}

	latest, err := e.Snapshots.Latest(id)
	if err != nil {
		return 0, nil, bitmap.NewError(id, "", err)
	}
	if latest == nil {
		return New, nil, nil
	}

	changes := Diff(e.filterSnapshot(rec, latest.Files), current)
	if latest.MainFile != rec.MainFile() && !contains(changes, rec.MainFile()) {
		changes = append(changes, rec.MainFile())
	}
	if res != nil {
		for _, p := range res.Added {
			if !contains(changes, p) {
				changes = append(changes, p)
			}
		}
	}

	switch {
	case len(changes) > 0:
		return Modified, changes, nil
	case latest.Pending():
		return Staged, nil, nil
	default:
		return Unchanged, nil, nil
	}
}

// Capture fingerprints the files of rec for a snapshot. Every tracked file must exist.
func (e *Engine) Capture(ctx context.Context, id string, rec *bitmap.Record) ([]snapshot.File, error) {
	return e.capture(ctx, id, rec, true)
}

// capture hashes the tracked files that are not excluded. A missing main file is
// always an error; other missing files are an error only when strict, and
// otherwise carry an empty hash so they compare as changed.
func (e *Engine) capture(ctx context.Context, id string, rec *bitmap.Record, strict bool) ([]snapshot.File, error) {
	s := e.Reconciler.Scanner
	var out []snapshot.File
	for _, f := range rec.Files() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.excluded(rec, f.RelativePath) {
			continue
		}
		sum, err := s.FS.Checksum(s.Abs(rec.WorkspacePath(f.RelativePath)))
		if err != nil {
			if !s.FS.IsNotExist(err) {
				return nil, bitmap.NewError(id, f.RelativePath, err)
			}
			if f.RelativePath == rec.MainFile() {
				return nil, bitmap.NewError(id, f.RelativePath, bitmap.ErrMainFileMissing)
			}
			if strict {
				return nil, bitmap.NewError(id, f.RelativePath, bitmap.ErrPathNotFound)
			}
		}
		out = append(out, snapshot.File{RelativePath: f.RelativePath, Name: f.Name, Test: f.Test, Hash: sum})
	}
	return out, nil
}

// excluded reports files that never take part in a comparison: ignored
// paths, dependency links, and files generated at the top of a rootDir.
func (e *Engine) excluded(rec *bitmap.Record, relativePath string) bool {
	r := e.Reconciler
	ws := rec.WorkspacePath(relativePath)
	if (ignore.Chain{r.Scanner.Ignore, r.Links}).IsIgnored(ws) {
		return true
	}
	if b := rec.Binding(); b.IsRoot() {
		for _, name := range r.Generated {
			if ws == path.Join(b.Dir(), name) {
				return true
			}
		}
	}
	return false
}

func (e *Engine) filterSnapshot(rec *bitmap.Record, files []snapshot.File) []snapshot.File {
	var out []snapshot.File
	for _, f := range files {
		if !e.excluded(rec, f.RelativePath) {
			out = append(out, f)
		}
	}
	return out
}

// Diff lists the paths whose presence, test flag, or content hash differ,
// in the order they appear in current followed by those only in base.
func Diff(base, current []snapshot.File) []string {
	old := make(map[string]snapshot.File, len(base))
	for _, f := range base {
		old[f.RelativePath] = f
	}
	var changes []string
	seen := make(map[string]bool, len(current))
	for _, f := range current {
		seen[f.RelativePath] = true
		prev, ok := old[f.RelativePath]
		if !ok || prev.Test != f.Test || prev.Hash != f.Hash || f.Hash == "" {
			changes = append(changes, f.RelativePath)
		}
	}
	for _, f := range base {
		if !seen[f.RelativePath] {
			changes = append(changes, f.RelativePath)
		}
	}
	return changes
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
