package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prdesk/prdesk/internal/model"
)

func ptr[T any](v T) *T { return &v }

func sampleTasks() []model.Task {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return []model.Task{
		{
			ID: "PR001", Title: "โปสเตอร์งานรับปริญญา", RequesterName: "อาจารย์วิชัย",
			TaskType: model.TaskTypeGraphic, Status: model.StatusNotStarted,
			Timestamp: base, DueDate: base.AddDate(0, 0, 7), IsStarred: true,
		},
		{
			ID: "PR002", Title: "วิดีโอแนะนำคณะ", RequesterName: "ฝ่ายประชาสัมพันธ์",
			TaskType: model.TaskTypeVideo, Status: model.StatusInProgress,
			Timestamp: base.Add(24 * time.Hour), DueDate: base.AddDate(0, 0, 3),
			AssigneeID: ptr("TM001"),
		},
		{
			ID: "PR003", Title: "ภาพข่าวกิจกรรม", RequesterName: "อาจารย์วิชัย",
			TaskType: model.TaskTypePhoto, Status: model.StatusCompleted,
			Timestamp: base.Add(48 * time.Hour), DueDate: base.AddDate(0, 0, 3),
			AssigneeID: ptr("TM002"),
		},
	}
}

func idsOf(tasks []model.Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	tasks := sampleTasks()
	original := make([]model.Task, len(tasks))
	copy(original, tasks)

	_ = Apply(tasks, Criteria{StarredOnly: true}, SortOldest)
	_ = Apply(tasks, Criteria{}, SortNewest)

	assert.Equal(t, original, tasks)
}

func TestApplyEmptyInput(t *testing.T) {
	out := Apply(nil, Criteria{}, SortNewest)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestApplyFilters(t *testing.T) {
	tasks := sampleTasks()
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 2, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		name string
		c    Criteria
		want []string
	}{
		{"no criteria keeps all", Criteria{}, []string{"PR001", "PR002", "PR003"}},
		{"starred only", Criteria{StarredOnly: true}, []string{"PR001"}},
		{"status", Criteria{Status: ptr(model.StatusInProgress)}, []string{"PR002"}},
		{"task type", Criteria{TaskType: ptr(model.TaskTypePhoto)}, []string{"PR003"}},
		{"assignee", Criteria{AssigneeID: ptr("TM001")}, []string{"PR002"}},
		{"assignee excludes unassigned", Criteria{AssigneeID: ptr("TM999")}, []string{}},
		{"search by title", Criteria{SearchText: "วิดีโอ"}, []string{"PR002"}},
		{"search by id is case-insensitive", Criteria{SearchText: "pr003"}, []string{"PR003"}},
		{"search by requester name", Criteria{SearchText: "วิชัย"}, []string{"PR001", "PR003"}},
		{"date range", Criteria{From: &from, To: &to}, []string{"PR002"}},
		{"combined AND", Criteria{Status: ptr(model.StatusCompleted), SearchText: "วิชัย"}, []string{"PR003"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Apply(tasks, tt.c, SortID)
			assert.Equal(t, tt.want, idsOf(out))
		})
	}
}

func TestApplySortKeys(t *testing.T) {
	tasks := sampleTasks()

	tests := []struct {
		name string
		key  SortKey
		want []string
	}{
		{"newest first", SortNewest, []string{"PR003", "PR002", "PR001"}},
		{"oldest first", SortOldest, []string{"PR001", "PR002", "PR003"}},
		{"by id", SortID, []string{"PR001", "PR002", "PR003"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Apply(tasks, Criteria{}, tt.key)
			assert.Equal(t, tt.want, idsOf(out))
		})
	}
}

func TestApplyDueDateSortIsStable(t *testing.T) {
	// PR002 and PR003 share a due date; the input order must survive.
	out := Apply(sampleTasks(), Criteria{}, SortDueDate)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"PR002", "PR003", "PR001"}, idsOf(out))
}

func TestApplyUnknownSortKeyKeepsFilteredOrder(t *testing.T) {
	tasks := sampleTasks()
	// Shuffle the input so identity is distinguishable from any real key.
	shuffled := []model.Task{tasks[2], tasks[0], tasks[1]}

	out := Apply(shuffled, Criteria{}, SortKey("bogus"))
	assert.Equal(t, []string{"PR003", "PR001", "PR002"}, idsOf(out))
}
