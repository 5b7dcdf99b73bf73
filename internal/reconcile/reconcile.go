// Package reconcile detects newly arrived tasks by comparing successive
// full snapshots of the task collection.
package reconcile

import "github.com/prdesk/prdesk/internal/model"

// Reconciler tracks the previously observed task snapshot and classifies
// each new snapshot's tasks as added or already known. It is owned by the
// component holding the subscription; there is exactly one per
// subscription and no shared global state.
//
// The very first snapshot after construction establishes the baseline and
// never reports additions; otherwise every task ever created would fire
// a spurious new-task notification on startup. The baseline flag is set
// once and never reset for the lifetime of the process.
type Reconciler struct {
	prev      []model.Task
	baselined bool
}

// New returns a Reconciler with no baseline established.
func New() *Reconciler {
	return &Reconciler{}
}

// Observe ingests the next full snapshot and returns the tasks that were
// not present in the previous one. The first call returns nil regardless
// of content. The snapshot is retained wholesale as the new baseline.
func (r *Reconciler) Observe(next []model.Task) []model.Task {
	if !r.baselined {
		r.baselined = true
		r.prev = next
		return nil
	}

	added := Diff(r.prev, next)
	r.prev = next
	return added
}

// Previous returns the snapshot retained by the last Observe call. The
// caller uses it for field-level comparisons (status, assignee) that are
// outside the reconciler's scope.
func (r *Reconciler) Previous() []model.Task {
	return r.prev
}

// Baselined reports whether the first snapshot has been seen.
func (r *Reconciler) Baselined() bool {
	return r.baselined
}

// Diff returns the tasks whose IDs appear in next but not in prev.
// Removals and field-level updates are not detected.
func Diff(prev, next []model.Task) []model.Task {
	known := make(map[string]bool, len(prev))
	for _, t := range prev {
		known[t.ID] = true
	}

	var added []model.Task
	for _, t := range next {
		if !known[t.ID] {
			added = append(added, t)
		}
	}
	return added
}
