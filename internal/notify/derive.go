// Package notify turns task-collection changes and due-date proximity
// into notification records. Every function here is pure: persistence and
// its failures are the caller's concern.
package notify

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/prdesk/prdesk/internal/model"
)

// DefaultDueSoonThresholdDays is the due-soon window when none is
// configured.
const DefaultDueSoonThresholdDays = 3

// NameResolver maps a team-member ID to a display name for message
// interpolation.
type NameResolver func(id string) string

// Deriver produces notification records from task events.
type Deriver struct {
	// ResolveName supplies assignee display names. When nil, the raw
	// member ID appears in assignment messages.
	ResolveName NameResolver

	// Now allows tests to pin the clock. Defaults to time.Now.
	Now func() time.Time
}

func (d *Deriver) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Deriver) resolveName(id string) string {
	if d.ResolveName != nil {
		return d.ResolveName(id)
	}
	return id
}

// newNotification assembles a record with a fresh ID and timestamp.
func (d *Deriver) newNotification(typ model.NotificationType, taskID, message string) model.Notification {
	return model.Notification{
		ID:        uuid.New().String(),
		Type:      typ,
		Message:   message,
		TaskID:    taskID,
		Timestamp: d.now(),
	}
}

// NewTaskBatch emits one NEW_TASK notification per added task. playSound
// is true at most once per non-empty batch (not once per task); the
// caller gates it with the user's sound preference.
func (d *Deriver) NewTaskBatch(added []model.Task) (ns []model.Notification, playSound bool) {
	for _, t := range added {
		ns = append(ns, d.newNotification(model.NotificationNewTask, t.ID, newTaskMessage(t)))
	}
	return ns, len(ns) > 0
}

// Assignment emits a NEW_ASSIGNMENT notification only for the transition
// from unassigned to assigned. Reassignment between two members emits
// nothing; the original system only checks the nil-to-non-nil edge, and
// that scope limit is kept deliberately.
func (d *Deriver) Assignment(oldTask, newTask model.Task) *model.Notification {
	if oldTask.Assigned() || !newTask.Assigned() {
		return nil
	}
	name := d.resolveName(*newTask.AssigneeID)
	n := d.newNotification(model.NotificationNewAssignment, newTask.ID,
		assignmentMessage(newTask, name))
	return &n
}

// StatusChange emits a STATUS_UPDATE notification whenever the status
// differs between the old and new task, for any transition pair including
// terminal ones. The message names the new status.
func (d *Deriver) StatusChange(oldTask, newTask model.Task) *model.Notification {
	if oldTask.Status == newTask.Status {
		return nil
	}
	n := d.newNotification(model.NotificationStatusUpdate, newTask.ID,
		statusMessage(newTask))
	return &n
}

// DueSoon emits one DUE_SOON notification for each non-terminal task
// whose due date falls within thresholdDays from now, unless a DUE_SOON
// notification for that task already exists. Calling it again with its
// own output merged into existing yields nothing: the function is
// idempotent and safe to run on every task-list change.
func (d *Deriver) DueSoon(tasks []model.Task, existing []model.Notification, thresholdDays int) []model.Notification {
	if thresholdDays <= 0 {
		thresholdDays = DefaultDueSoonThresholdDays
	}

	alreadyNotified := make(map[string]bool)
	for _, n := range existing {
		if n.Type == model.NotificationDueSoon {
			alreadyNotified[n.TaskID] = true
		}
	}

	now := d.now()
	var ns []model.Notification
	for _, t := range tasks {
		if model.IsTerminalStatus(t.Status) {
			continue
		}
		if t.DueDate.IsZero() || alreadyNotified[t.ID] {
			continue
		}
		days := daysUntil(now, t.DueDate)
		if days < 0 || days > thresholdDays {
			continue
		}
		ns = append(ns, d.newNotification(model.NotificationDueSoon, t.ID, dueSoonMessage(t)))
	}
	return ns
}

// daysUntil computes ceil((due - now) / 24h).
func daysUntil(now, due time.Time) int {
	return int(math.Ceil(due.Sub(now).Hours() / 24))
}
