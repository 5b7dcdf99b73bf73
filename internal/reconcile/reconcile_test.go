package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prdesk/prdesk/internal/model"
)

func task(id string) model.Task {
	return model.Task{ID: id, Title: "task " + id}
}

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestDiff(t *testing.T) {
	tests := []struct {
		name      string
		prev      []model.Task
		next      []model.Task
		wantAdded []string
	}{
		{
			name:      "new task detected",
			prev:      []model.Task{task("PR001")},
			next:      []model.Task{task("PR001"), task("PR002")},
			wantAdded: []string{"PR002"},
		},
		{
			name:      "identical snapshots yield nothing",
			prev:      []model.Task{task("PR001"), task("PR002")},
			next:      []model.Task{task("PR001"), task("PR002")},
			wantAdded: nil,
		},
		{
			name:      "removals are not reported",
			prev:      []model.Task{task("PR001"), task("PR002")},
			next:      []model.Task{task("PR001")},
			wantAdded: nil,
		},
		{
			name:      "empty previous reports everything",
			prev:      nil,
			next:      []model.Task{task("PR001"), task("PR002")},
			wantAdded: []string{"PR001", "PR002"},
		},
		{
			name:      "empty next reports nothing",
			prev:      []model.Task{task("PR001")},
			next:      nil,
			wantAdded: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			added := Diff(tt.prev, tt.next)
			if tt.wantAdded == nil {
				assert.Empty(t, added)
				return
			}
			assert.Equal(t, tt.wantAdded, ids(added))
		})
	}
}

func TestObserveFirstSnapshotIsBaseline(t *testing.T) {
	r := New()
	assert.False(t, r.Baselined())

	// The very first snapshot must not report additions, whatever it
	// contains.
	added := r.Observe([]model.Task{task("PR001"), task("PR002")})
	assert.Empty(t, added)
	assert.True(t, r.Baselined())

	// The next snapshot diffs against the baseline.
	added = r.Observe([]model.Task{task("PR001"), task("PR002"), task("PR003")})
	assert.Equal(t, []string{"PR003"}, ids(added))
}

func TestObserveBaselineNeverResets(t *testing.T) {
	r := New()
	r.Observe(nil)

	added := r.Observe([]model.Task{task("PR001")})
	assert.Equal(t, []string{"PR001"}, ids(added))

	// An empty snapshot later does not re-arm the baseline.
	r.Observe(nil)
	added = r.Observe([]model.Task{task("PR001")})
	assert.Equal(t, []string{"PR001"}, ids(added))
}

func TestObserveRetainsPrevious(t *testing.T) {
	r := New()
	first := []model.Task{task("PR001")}
	r.Observe(first)

	second := []model.Task{task("PR001"), task("PR002")}
	r.Observe(second)

	assert.Equal(t, second, r.Previous())
}
