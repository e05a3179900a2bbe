package repo

import (
	"context"

	"github.com/keshon/cvc/internal/bitmap"
	"github.com/keshon/cvc/internal/progress"
)

// Problem is one inconsistency found by Verify.
type Problem struct {
	ID  string
	Err error
}

// Verify checks every record without modifying anything: invariants hold,
// every tracked file is on disk, and the latest snapshot is readable.
func (r *Repository) Verify(ctx context.Context) ([]Problem, error) {
	ix, err := r.Index.Load()
	if err != nil {
		return nil, err
	}

	bar := progress.NewProgress(r.Out, ix.Len(), "Checking components")
	defer bar.Finish()

	var problems []Problem
	for _, id := range ix.IDs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		before := len(problems)
		rec, _ := ix.Get(id)
		if err := rec.Validate(); err != nil {
			problems = append(problems, Problem{ID: id, Err: bitmap.WithID(err, id)})
		} else if _, err := r.Status.Capture(ctx, id, rec); err != nil {
			problems = append(problems, Problem{ID: id, Err: err})
		}
		if _, err := r.Snapshots.Latest(id); err != nil {
			problems = append(problems, Problem{ID: id, Err: err})
		}
		if len(problems) > before {
			bar.Fail()
		} else {
			bar.Increment()
		}
	}
	return problems, nil
}
