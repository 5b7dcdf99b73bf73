// Package requestform is the huh-based submission form for new task
// requests.
package requestform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/prdesk/prdesk/internal/model"
	"github.com/prdesk/prdesk/internal/theme"
)

// SubmittedMsg is dispatched when a requester completes the form. A
// single item is a standalone request; several items form a project
// sharing ProjectName.
type SubmittedMsg struct {
	Tasks       []model.Task
	ProjectName string
}

// CancelMsg is dispatched when the user abandons the form.
type CancelMsg struct{}

// formBindings holds field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	requesterName  string
	requesterEmail string
	department     string
	phone          string
	taskType       string
	otherTypeName  string
	title          string
	description    string
	dueDate        string
	notes          string
	projectName    string
	addAnother     bool
}

// Model is the Bubble Tea model for the request form.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	items  []model.Task
	width  int
	height int
}

// New creates a new request form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{taskType: model.TaskTypeGraphic},
		width:  width,
		height: height,
	}
}

// Start initializes a fresh form.
func (m *Model) Start() tea.Cmd {
	*m.fb = formBindings{taskType: model.TaskTypeGraphic}
	m.items = nil
	m.form = m.buildForm()
	return m.form.Init()
}

// startNextItem keeps the requester identity and project name while
// clearing the per-item fields, then rebuilds the form at the item
// group.
func (m *Model) startNextItem() tea.Cmd {
	*m.fb = formBindings{
		requesterName:  m.fb.requesterName,
		requesterEmail: m.fb.requesterEmail,
		department:     m.fb.department,
		phone:          m.fb.phone,
		projectName:    m.fb.projectName,
		taskType:       model.TaskTypeGraphic,
	}
	m.form = m.buildForm()
	return m.form.Init()
}

// buildForm assembles the huh form groups.
func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("ชื่อผู้ขอ").
				Value(&m.fb.requesterName).
				Validate(required("กรุณากรอกชื่อ")),
			huh.NewInput().
				Title("อีเมล").
				Value(&m.fb.requesterEmail),
			huh.NewInput().
				Title("หน่วยงาน").
				Value(&m.fb.department),
			huh.NewInput().
				Title("โทรศัพท์").
				Value(&m.fb.phone),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("ประเภทงาน").
				Options(
					huh.NewOption("กราฟิก", model.TaskTypeGraphic),
					huh.NewOption("วิดีโอ", model.TaskTypeVideo),
					huh.NewOption("ภาพถ่าย", model.TaskTypePhoto),
					huh.NewOption("ข่าว", model.TaskTypeNews),
					huh.NewOption("ประชาสัมพันธ์เสียงตามสาย", model.TaskTypeBroadcast),
					huh.NewOption("อื่น ๆ", model.TaskTypeOther),
				).
				Value(&m.fb.taskType),
			huh.NewInput().
				Title("ระบุประเภท (กรณีอื่น ๆ)").
				Value(&m.fb.otherTypeName),
			huh.NewInput().
				Title("หัวข้องาน").
				Value(&m.fb.title).
				Validate(required("กรุณากรอกหัวข้องาน")),
			huh.NewText().
				Title("รายละเอียด").
				Value(&m.fb.description),
			huh.NewInput().
				Title("กำหนดส่ง (YYYY-MM-DD)").
				Value(&m.fb.dueDate).
				Validate(validDate),
			huh.NewText().
				Title("หมายเหตุเพิ่มเติม").
				Value(&m.fb.notes),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("ชื่อโครงการ").
				Description("ระบุเมื่อส่งหลายงานเป็นโครงการเดียวกัน").
				Value(&m.fb.projectName),
			huh.NewConfirm().
				Title("เพิ่มงานอีกรายการในคำขอนี้?").
				Affirmative("เพิ่ม").
				Negative("ส่งคำขอ").
				Value(&m.fb.addAnother),
		),
	)
}

// required builds a non-empty validator with the given message.
func required(msg string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s", msg)
		}
		return nil
	}
}

// validDate accepts an empty value or a YYYY-MM-DD date not in the past.
func validDate(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("รูปแบบวันที่ไม่ถูกต้อง")
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(today) {
		return fmt.Errorf("กำหนดส่งต้องไม่ก่อนวันนี้")
	}
	return nil
}

// Init returns nil; Start builds the form on demand.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update advances the form and emits SubmittedMsg/CancelMsg when it
// finishes.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.items = append(m.items, m.taskFromBindings())
		if m.fb.addAnother {
			return m, m.startNextItem()
		}
		submitted := SubmittedMsg{Tasks: m.items, ProjectName: strings.TrimSpace(m.fb.projectName)}
		m.form = nil
		m.items = nil
		return m, func() tea.Msg { return submitted }
	}
	if m.form.State == huh.StateAborted {
		m.form = nil
		m.items = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// taskFromBindings maps the form values onto a task request.
func (m Model) taskFromBindings() model.Task {
	t := model.Task{
		RequesterName:   strings.TrimSpace(m.fb.requesterName),
		RequesterEmail:  strings.TrimSpace(m.fb.requesterEmail),
		Department:      strings.TrimSpace(m.fb.department),
		Phone:           strings.TrimSpace(m.fb.phone),
		TaskType:        m.fb.taskType,
		Title:           strings.TrimSpace(m.fb.title),
		Description:     strings.TrimSpace(m.fb.description),
		AdditionalNotes: strings.TrimSpace(m.fb.notes),
	}
	if t.TaskType == model.TaskTypeOther {
		t.OtherTaskTypeName = strings.TrimSpace(m.fb.otherTypeName)
	}
	if d, err := time.Parse("2006-01-02", strings.TrimSpace(m.fb.dueDate)); err == nil {
		t.DueDate = d
	}
	return t
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	title := "คำของานใหม่"
	if len(m.items) > 0 {
		title = fmt.Sprintf("คำของานใหม่ · รายการที่ %d", len(m.items)+1)
	}
	header := theme.HeaderStyle.Render(title)
	return lipgloss.JoinVertical(lipgloss.Left, header, m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
