// Package repo ties the index, snapshots, and working tree of one workspace
// together. Every operation loads the index once and saves it at most once.
package repo

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/keshon/cvc/internal/bitmap"
	"github.com/keshon/cvc/internal/config"
	"github.com/keshon/cvc/internal/fs"
	"github.com/keshon/cvc/internal/ignore"
	"github.com/keshon/cvc/internal/logging"
	"github.com/keshon/cvc/internal/reconcile"
	"github.com/keshon/cvc/internal/scan"
	"github.com/keshon/cvc/internal/snapshot"
	"github.com/keshon/cvc/internal/status"
	"github.com/keshon/cvc/internal/track"
)

// Repository represents an initialized workspace.
type Repository struct {
	Config    *config.Config
	FS        fs.FS
	Log       *slog.Logger
	Out       io.Writer
	Index     *bitmap.Store
	Snapshots *snapshot.Store

	Scanner    *scan.Scanner
	Reconciler *reconcile.Reconciler
	Status     *status.Engine
	Tracker    *track.Tracker
}

// Option adjusts a Repository while it is opened.
type Option func(*Repository)

// WithLogger replaces the logger built from the configured level.
func WithLogger(log *slog.Logger) Option {
	return func(r *Repository) { r.Log = log }
}

// WithOutput sets where progress is rendered. Nil discards it.
func WithOutput(w io.Writer) Option {
	return func(r *Repository) { r.Out = w }
}

// InitAt initializes a workspace at dir.
// Returns (*Repository, created, error); an existing workspace yields os.ErrExist.
func InitAt(fsys fs.FS, dir string, opts ...Option) (*Repository, bool, error) {
	cfg := config.Default(dir)
	if fsys.Exists(cfg.IndexPath()) {
		r, err := OpenAt(fsys, dir, opts...)
		if err != nil {
			return nil, false, err
		}
		return r, false, os.ErrExist
	}

	for _, d := range []string{cfg.RepoDir(), cfg.SnapshotsDir()} {
		if err := fsys.MkdirAll(d, 0o755); err != nil {
			return nil, false, fmt.Errorf("failed to create dir %q: %w", d, err)
		}
	}
	if !fsys.Exists(cfg.ConfigPath()) {
		if err := cfg.Save(fsys); err != nil {
			return nil, false, fmt.Errorf("failed to save %s: %w", config.ConfigFile, err)
		}
	}
	if err := bitmap.NewStore(fsys, cfg.IndexPath()).Save(bitmap.New()); err != nil {
		return nil, false, err
	}

	r, err := OpenAt(fsys, dir, opts...)
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// OpenAt opens an existing workspace rooted at dir.
func OpenAt(fsys fs.FS, dir string, opts ...Option) (*Repository, error) {
	if !fsys.IsDir(filepath.Join(dir, config.RepoDir)) {
		return nil, fmt.Errorf("not a workspace (missing %s): %s", config.RepoDir, dir)
	}
	cfg, err := config.Load(fsys, dir)
	if err != nil {
		return nil, err
	}

	r := &Repository{Config: cfg, FS: fsys, Log: logging.New(os.Stderr, cfg.LogLevel)}
	for _, opt := range opts {
		opt(r)
	}

	ig, err := ignore.Load(fsys, cfg)
	if err != nil {
		return nil, err
	}
	snaps, err := snapshot.NewStore(fsys, cfg.SnapshotsDir(), cfg.SnapshotCacheSize)
	if err != nil {
		return nil, err
	}

	r.Index = bitmap.NewStore(fsys, cfg.IndexPath())
	r.Snapshots = snaps
	r.Scanner = scan.New(fsys, dir, ig)
	links := ignore.NewLinkDetector(fsys, dir, cfg.LinkMarker)
	r.Reconciler = reconcile.New(r.Scanner, links, cfg.GeneratedFiles, cfg.Workers, r.Log)
	r.Status = status.NewEngine(r.Reconciler, snaps, cfg.Workers, r.Log)
	r.Tracker = track.New(r.Scanner, cfg.MainFileNames, r.Log)
	return r, nil
}

// Open finds the workspace containing start and opens it.
func Open(fsys fs.FS, start string, opts ...Option) (*Repository, error) {
	root := config.ResolveWorkingTreeRoot(fsys, start)
	if root == "" {
		return nil, fmt.Errorf("not a workspace (or any parent up to /): %s", start)
	}
	return OpenAt(fsys, root, opts...)
}

// Load reads the index. Read-only callers use it directly.
func (r *Repository) Load() (*bitmap.Index, error) {
	return r.Index.Load()
}

// Add tracks files per opts and saves the index.
func (r *Repository) Add(ctx context.Context, opts track.Options) (*track.Result, error) {
	ix, err := r.Index.Load()
	if err != nil {
		return nil, err
	}
	res, err := r.Tracker.Add(ctx, ix, opts)
	if err != nil {
		return nil, err
	}
	if err := r.Index.Save(ix); err != nil {
		return nil, err
	}
	return res, nil
}

// StatusOf classifies components, saving the index when reconciliation changed it.
func (r *Repository) StatusOf(ctx context.Context, ids ...string) (*status.Report, error) {
	ix, err := r.Index.Load()
	if err != nil {
		return nil, err
	}
	rep, err := r.Status.Status(ctx, ix, ids...)
	if err != nil {
		return nil, err
	}
	if rep.IndexChanged {
		if err := r.Index.Save(ix); err != nil {
			return nil, err
		}
	}
	return rep, nil
}

// Reconcile rescans every bound component and saves once.
func (r *Repository) Reconcile(ctx context.Context) (*reconcile.Report, error) {
	ix, err := r.Index.Load()
	if err != nil {
		return nil, err
	}
	rep, err := r.Reconciler.Index(ctx, ix)
	if err != nil {
		return nil, err
	}
	if rep.Changed() {
		if err := r.Index.Save(ix); err != nil {
			return nil, err
		}
	}
	return rep, nil
}

// Untrack removes components from the index. Their snapshots are kept unless
// purge is set, in which case they are deleted after the index is saved.
func (r *Repository) Untrack(purge bool, ids ...string) error {
	ix, err := r.Index.Load()
	if err != nil {
		return err
	}
	for _, id := range ids {
		if !ix.Remove(id) {
			return bitmap.NewError(id, "", bitmap.ErrComponentNotFound)
		}
	}
	if err := r.Index.Save(ix); err != nil {
		return err
	}
	if !purge {
		return nil
	}
	for _, id := range ids {
		if err := r.Snapshots.Remove(id); err != nil {
			return err
		}
	}
	return nil
}

// History returns the snapshots of id, latest first. Untracked components keep
// their history until purged.
func (r *Repository) History(id string) ([]*snapshot.Snapshot, error) {
	snaps, err := r.Snapshots.History(id)
	if err != nil || len(snaps) > 0 {
		return snaps, err
	}
	ix, err := r.Index.Load()
	if err != nil {
		return nil, err
	}
	if _, err := ix.MustGet(id); err != nil {
		return nil, err
	}
	return nil, nil
}
