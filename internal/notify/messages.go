package notify

import (
	"fmt"

	"github.com/prdesk/prdesk/internal/model"
)

// statusLabels maps task statuses to the Thai display labels used in
// notification messages.
var statusLabels = map[string]string{
	model.StatusNotStarted: "ยังไม่เริ่ม",
	model.StatusInProgress: "กำลังดำเนินการ",
	model.StatusCompleted:  "เสร็จสิ้น",
	model.StatusCancelled:  "ยกเลิก",
}

// StatusLabel returns the display label for a status, falling back to
// the raw value for unknown statuses.
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// Message templates. Plain interpolation only; the original system has no
// localization layer beyond these literal strings.
func newTaskMessage(t model.Task) string {
	return fmt.Sprintf("มีงานใหม่เข้ามา: %s", t.Title)
}

func assignmentMessage(t model.Task, assigneeName string) string {
	return fmt.Sprintf("งาน %s ถูกมอบหมายให้ %s", t.Title, assigneeName)
}

func statusMessage(t model.Task) string {
	return fmt.Sprintf("งาน %s เปลี่ยนสถานะเป็น %s", t.Title, StatusLabel(t.Status))
}

func dueSoonMessage(t model.Task) string {
	return fmt.Sprintf("งาน %s ใกล้ถึงกำหนดส่ง (%s)", t.Title, t.DueDate.Format("02/01/2006"))
}
