package repo

import "github.com/keshon/cvc/internal/bitmap"

// Summary describes one tracked component without touching the working tree.
type Summary struct {
	ID       string
	Binding  bitmap.Binding
	MainFile string
	Files    int
	Tests    int
	// Snapshot is the id of the latest snapshot, "" when never tagged.
	Snapshot string
	Pending  bool
}

// List summarizes every component in index order.
func (r *Repository) List() ([]Summary, error) {
	ix, err := r.Index.Load()
	if err != nil {
		return nil, err
	}

	out := make([]Summary, 0, ix.Len())
	for _, id := range ix.IDs() {
		rec, _ := ix.Get(id)
		s := Summary{ID: id, Binding: rec.Binding(), MainFile: rec.MainFile(), Files: rec.Len()}
		for _, f := range rec.Files() {
			if f.Test {
				s.Tests++
			}
		}
		latest, err := r.Snapshots.Latest(id)
		if err != nil {
			return nil, err
		}
		if latest != nil {
			s.Snapshot = latest.ID
			s.Pending = latest.Pending()
		}
		out = append(out, s)
	}
	return out, nil
}
