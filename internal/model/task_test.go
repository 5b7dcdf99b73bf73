package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatTaskID(t *testing.T) {
	assert.Equal(t, "PR001", FormatTaskID(1))
	assert.Equal(t, "PR042", FormatTaskID(42))
	assert.Equal(t, "PR1000", FormatTaskID(1000))
}

func TestAssigned(t *testing.T) {
	var task Task
	assert.False(t, task.Assigned())

	empty := ""
	task.AssigneeID = &empty
	assert.False(t, task.Assigned())

	tm := "TM001"
	task.AssigneeID = &tm
	assert.True(t, task.Assigned())
}

func TestIsTerminalStatus(t *testing.T) {
	assert.True(t, IsTerminalStatus(StatusCompleted))
	assert.True(t, IsTerminalStatus(StatusCancelled))
	assert.False(t, IsTerminalStatus(StatusNotStarted))
	assert.False(t, IsTerminalStatus(StatusInProgress))
}

func TestValidateRequest(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	valid := Task{
		Title:     "โปสเตอร์",
		TaskType:  TaskTypeGraphic,
		Timestamp: now,
		DueDate:   now.AddDate(0, 0, 7),
	}

	tests := []struct {
		name    string
		mutate  func(*Task)
		wantErr bool
	}{
		{"valid request", func(*Task) {}, false},
		{"no due date is allowed", func(t *Task) { t.DueDate = time.Time{} }, false},
		{"due earlier the same day is allowed", func(t *Task) { t.DueDate = now.Add(-2 * time.Hour) }, false},
		{"other type with name", func(t *Task) {
			t.TaskType = TaskTypeOther
			t.OtherTaskTypeName = "สติกเกอร์"
		}, false},
		{"empty title", func(t *Task) { t.Title = "" }, true},
		{"whitespace title", func(t *Task) { t.Title = " \t " }, true},
		{"other type without name", func(t *Task) { t.TaskType = TaskTypeOther }, true},
		{"name on non-other type", func(t *Task) { t.OtherTaskTypeName = "x" }, true},
		{"due before creation day", func(t *Task) { t.DueDate = now.AddDate(0, 0, -1) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := valid
			tt.mutate(&task)

			err := ValidateRequest(task)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
