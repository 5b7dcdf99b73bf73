package model

import "time"

// NotificationType identifies the kind of task event a notification reports.
type NotificationType string

const (
	NotificationNewTask       NotificationType = "NEW_TASK"
	NotificationNewAssignment NotificationType = "NEW_ASSIGNMENT"
	NotificationDueSoon       NotificationType = "DUE_SOON"
	NotificationStatusUpdate  NotificationType = "STATUS_UPDATE"
)

// Notification is a derived, transient record alerting team members to
// activity on a task. It references the task; it does not own it.
type Notification struct {
	// ID is the unique identifier for this notification.
	ID string `json:"id"`

	// Type is the event kind (use Notification* constants).
	Type NotificationType `json:"type"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// TaskID links this notification to the originating task.
	TaskID string `json:"task_id"`

	// Timestamp is when this notification was generated.
	Timestamp time.Time `json:"timestamp"`

	// IsRead indicates whether a team member has seen this notification.
	IsRead bool `json:"is_read"`
}
