package reconcile

import (
	"context"

	"github.com/keshon/cvc/internal/bitmap"
	"github.com/keshon/cvc/internal/util"
)

// Report collects the outcome of reconciling a whole index.
type Report struct {
	Results map[string]*Result
	Errors  map[string]error
}

// Changed reports whether any record was rewritten.
func (rep *Report) Changed() bool {
	for _, res := range rep.Results {
		if res.Changed() {
			return true
		}
	}
	return false
}

// Index reconciles every bound record of ix concurrently and merges the
// changed ones back into ix. Failures are recorded per component and leave
// that record as it was. The returned error is non-nil only when ctx ends
// early, in which case ix is untouched and must not be saved.
func (r *Reconciler) Index(ctx context.Context, ix *bitmap.Index) (*Report, error) {
	ids := ix.IDs()
	results := make([]*Result, len(ids))
	errs := make([]error, len(ids))

	positions := make([]int, len(ids))
	for i := range positions {
		positions[i] = i
	}

	err := util.Parallel(ctx, positions, r.Workers, func(ctx context.Context, i int) error {
		rec, _ := ix.Get(ids[i])
		res, err := r.Reconcile(ctx, ids[i], rec)
		if err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		results[i], errs[i] = res, err
		return nil
	})
	if err != nil {
		return nil, err
	}

	rep := &Report{Results: make(map[string]*Result, len(ids)), Errors: map[string]error{}}
	for i, id := range ids {
		if errs[i] != nil {
			rep.Errors[id] = errs[i]
			r.Log.Warn("reconcile failed", "component", id, "err", errs[i])
			continue
		}
		res := results[i]
		rep.Results[id] = res
		if !res.Changed() {
			continue
		}
		if err := ix.Upsert(id, res.Record); err != nil {
			delete(rep.Results, id)
			rep.Errors[id] = err
		}
	}
	return rep, nil
}
