package model

import (
	"fmt"
	"strings"
	"time"
)

// Task status constants. COMPLETED and CANCELLED are terminal for the
// ordinary flow; any active status may transition to either of them.
const (
	StatusNotStarted = "NOT_STARTED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
)

// Task type constants. TaskTypeOther carries a free-text label in
// Task.OtherTaskTypeName.
const (
	TaskTypeGraphic   = "graphic"
	TaskTypeVideo     = "video"
	TaskTypePhoto     = "photo"
	TaskTypeNews      = "news"
	TaskTypeBroadcast = "broadcast"
	TaskTypeOther     = "other"
)

// IsTerminalStatus reports whether status is one of the terminal states.
func IsTerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}

// Attachment is a file reference submitted alongside a task request.
// Upload and download are handled outside this application; only the
// metadata travels with the task.
type Attachment struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Type string `json:"type"`
	URL  string `json:"url,omitempty"`
}

// TaskNote is a free-form team annotation on a task.
type TaskNote struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// Task is a unit of requested communications work.
type Task struct {
	// ID is the stable human-readable identifier, issued monotonically
	// per creation in the form PR001, PR002, ...
	ID string `json:"id"`

	// ProjectID groups sibling tasks submitted together as one project.
	// Empty for standalone requests.
	ProjectID string `json:"project_id,omitempty"`

	// ProjectName is the display name shared by all tasks of a project.
	ProjectName string `json:"project_name,omitempty"`

	// Requester identity as entered on the request form.
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`
	Department     string `json:"department"`
	Phone          string `json:"phone"`

	// TaskType classifies the work (use TaskType* constants).
	TaskType string `json:"task_type"`

	// OtherTaskTypeName is the free-text label for TaskTypeOther.
	// Present only when TaskType is "other".
	OtherTaskTypeName string `json:"other_task_type_name,omitempty"`

	// Title is the short summary of the request.
	Title string `json:"title"`

	// Description is the full request body.
	Description string `json:"description"`

	// AdditionalNotes carries anything the requester added outside the
	// structured fields.
	AdditionalNotes string `json:"additional_notes,omitempty"`

	// DueDate is when the requester needs the work delivered.
	DueDate time.Time `json:"due_date"`

	// Timestamp is the creation time of the request.
	Timestamp time.Time `json:"timestamp"`

	// Status is the lifecycle state (use Status* constants).
	Status string `json:"status"`

	// AssigneeID references the team member working the task.
	// Nil while the task is unassigned.
	AssigneeID *string `json:"assignee_id,omitempty"`

	// IsStarred marks the task as flagged by a team member.
	IsStarred bool `json:"is_starred"`

	// Attachments lists files submitted with the request.
	Attachments []Attachment `json:"attachments,omitempty"`

	// Notes holds the ordered team annotation thread.
	Notes []TaskNote `json:"notes,omitempty"`
}

// Assigned reports whether the task has an assignee.
func (t *Task) Assigned() bool {
	return t.AssigneeID != nil && *t.AssigneeID != ""
}

// FormatTaskID renders a sequence number as a task identifier (PR001).
func FormatTaskID(seq int) string {
	return fmt.Sprintf("PR%03d", seq)
}

// ValidateRequest checks the input-time invariants of a new task request:
// a non-empty title, the other-type label rule, and that the due date does
// not precede the creation day. These are enforced only at submission;
// stored tasks are never re-validated.
func ValidateRequest(t Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}
	if t.TaskType == TaskTypeOther && strings.TrimSpace(t.OtherTaskTypeName) == "" {
		return fmt.Errorf("task type %q requires a type name", TaskTypeOther)
	}
	if t.TaskType != TaskTypeOther && t.OtherTaskTypeName != "" {
		return fmt.Errorf("type name is only allowed for task type %q", TaskTypeOther)
	}
	if !t.DueDate.IsZero() {
		created := t.Timestamp
		if created.IsZero() {
			created = time.Now()
		}
		y, m, d := created.Date()
		startOfDay := time.Date(y, m, d, 0, 0, 0, 0, created.Location())
		if t.DueDate.Before(startOfDay) {
			return fmt.Errorf("due date %s precedes creation day", t.DueDate.Format("2006-01-02"))
		}
	}
	return nil
}
