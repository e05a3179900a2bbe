package repo

import (
	"context"
	"fmt"

	"github.com/keshon/cvc/internal/progress"
	"github.com/keshon/cvc/internal/snapshot"
	"github.com/keshon/cvc/internal/status"
	"github.com/keshon/cvc/internal/util"
)

// TagResult reports what a tag pass did per component.
type TagResult struct {
	Tagged  []*snapshot.Snapshot
	Skipped []string
	Failed  map[string]error
}

// Tag records a snapshot for every new or modified component among ids (all
// when empty). Components that fail validation are reported and skipped.
func (r *Repository) Tag(ctx context.Context, ids ...string) (*TagResult, error) {
	ix, err := r.Index.Load()
	if err != nil {
		return nil, err
	}
	rep, err := r.Status.Status(ctx, ix, ids...)
	if err != nil {
		return nil, err
	}
	// Snapshots must never describe a file set the index has not persisted.
	if rep.IndexChanged {
		if err := r.Index.Save(ix); err != nil {
			return nil, err
		}
	}

	res := &TagResult{Failed: map[string]error{}}
	var todo []string
	for _, c := range rep.Components {
		switch {
		case c.Err != nil:
			res.Failed[c.ID] = c.Err
		case c.State == status.New || c.State == status.Modified:
			todo = append(todo, c.ID)
		default:
			res.Skipped = append(res.Skipped, c.ID)
		}
	}

	tagged := make([]*snapshot.Snapshot, len(todo))
	failed := make([]error, len(todo))
	positions := make([]int, len(todo))
	for i := range positions {
		positions[i] = i
	}

	bar := progress.NewProgress(r.Out, len(todo), "Tagging components ")
	err = util.Parallel(ctx, positions, r.Config.Workers, func(ctx context.Context, i int) error {
		rec, err := ix.MustGet(todo[i])
		if err != nil {
			return err
		}
		files, err := r.Status.Capture(ctx, todo[i], rec)
		if err != nil {
			failed[i] = err
			bar.Fail()
			return nil
		}
		snap, err := r.Snapshots.Record(todo[i], snapshot.Snapshot{MainFile: rec.MainFile(), Files: files})
		if err != nil {
			return fmt.Errorf("tag %s: %w", todo[i], err)
		}
		tagged[i] = snap
		bar.Increment()
		return nil
	})
	bar.Finish()
	if err != nil {
		return nil, err
	}

	for i, id := range todo {
		if failed[i] != nil {
			res.Failed[id] = failed[i]
			r.Log.Warn("tag failed", "component", id, "err", failed[i])
			continue
		}
		res.Tagged = append(res.Tagged, tagged[i])
	}

	return res, nil
}

// Export marks pending snapshots of ids (all components when empty) as
// published and returns the ids that changed.
func (r *Repository) Export(ctx context.Context, ids ...string) ([]string, error) {
	explicit := len(ids) > 0
	if !explicit {
		ix, err := r.Index.Load()
		if err != nil {
			return nil, err
		}
		ids = ix.IDs()
	}

	var exported []string
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return exported, err
		}
		latest, err := r.Snapshots.Latest(id)
		if err != nil {
			return exported, err
		}
		if latest == nil {
			if explicit {
				return exported, fmt.Errorf("component %s has no snapshot to export, tag it first", id)
			}
			continue
		}
		if !latest.Pending() {
			continue
		}
		if _, err := r.Snapshots.MarkExported(id); err != nil {
			return exported, err
		}
		exported = append(exported, id)
	}
	return exported, nil
}
