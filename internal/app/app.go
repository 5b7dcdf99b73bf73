// Package app is the root Bubble Tea model: view routing, watcher and
// subscription plumbing, and the status bar.
package app

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/prdesk/prdesk/internal/keys"
	"github.com/prdesk/prdesk/internal/model"
	"github.com/prdesk/prdesk/internal/store"
	appsync "github.com/prdesk/prdesk/internal/sync"
	"github.com/prdesk/prdesk/internal/theme"
	helpview "github.com/prdesk/prdesk/internal/ui/help"
	"github.com/prdesk/prdesk/internal/ui/notifpanel"
	"github.com/prdesk/prdesk/internal/ui/requestform"
	"github.com/prdesk/prdesk/internal/ui/tasklist"
)

// ViewState represents the current active view.
type ViewState int

const (
	ViewTasks ViewState = iota
	ViewNotifications
	ViewRequestForm
	ViewHelp
)

// notificationsSnapshotMsg carries a full notification snapshot from the
// app's own collection subscription.
type notificationsSnapshotMsg struct {
	notifications []model.Notification
}

// replaceDoneMsg reports the result of a ReplaceAll persist.
type replaceDoneMsg struct {
	err error
}

// requestFiledMsg reports the result of filing a new request.
type requestFiledMsg struct {
	ids []string
	err error
}

// actionDoneMsg reports the result of a single task mutation.
type actionDoneMsg struct {
	err error
}

// Stores bundles the typed store accessors the app works with.
type Stores struct {
	Tasks         *store.TaskStore
	Notifications *store.NotificationStore
	Members       *store.MemberStore
	Prefs         *store.PrefStore
}

// Model is the root application model.
type Model struct {
	currentView  ViewState
	previousView ViewState
	keys         *keys.KeyMap
	stores       Stores
	watcher      *appsync.Watcher

	taskList  tasklist.Model
	notifView notifpanel.Model
	formView  requestform.Model
	helpView  helpview.Model

	notifCh       chan []model.Notification
	unsubNotifs   func()
	notifications []model.Notification
	unreadCount   int
	soundEnabled  bool
	statusMessage string
	width         int
	height        int
	ready         bool
}

// New creates the root model over the given stores and watcher, and
// registers the app's own subscription on the notification collection.
// dueSoonDays drives the task list's due-date highlighting.
func New(s Stores, w *appsync.Watcher, dueSoonDays int) Model {
	k := keys.DefaultKeyMap()
	m := Model{
		currentView:  ViewTasks,
		keys:         k,
		stores:       s,
		watcher:      w,
		taskList:     tasklist.New(k, 80, 24, dueSoonDays),
		notifView:    notifpanel.New(k, 80, 24),
		formView:     requestform.New(80, 24),
		helpView:     helpview.New(k, 80, 24),
		notifCh:      make(chan []model.Notification, 1),
		soundEnabled: s.Prefs.SoundEnabled(context.Background()),
	}

	// Snapshots use replace semantics on the channel; only the latest
	// matters. The unsubscribe function is kept for the quit path.
	ch := m.notifCh
	unsub, err := s.Notifications.Subscribe(func(ns []model.Notification) {
		for {
			select {
			case ch <- ns:
				return
			default:
				select {
				case <-ch:
				default:
				}
			}
		}
	})
	if err != nil {
		m.statusMessage = fmt.Sprintf("เกิดข้อผิดพลาด: %v", err)
	} else {
		m.unsubNotifs = unsub
	}

	return m
}

// Init starts the watcher and the notification snapshot wait.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.watcher.Start(),
		m.waitForNotifications(),
	)
}

// waitForNotifications blocks on the snapshot channel.
func (m Model) waitForNotifications() tea.Cmd {
	ch := m.notifCh
	return func() tea.Msg {
		ns, ok := <-ch
		if !ok {
			return nil
		}
		return notificationsSnapshotMsg{notifications: ns}
	}
}

// Update routes messages to the active view and handles global events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		contentHeight := msg.Height - 1
		m.taskList.SetSize(msg.Width, contentHeight)
		m.notifView.SetSize(msg.Width, contentHeight)
		m.formView.SetSize(msg.Width, contentHeight)
		m.helpView.SetSize(msg.Width, contentHeight)
		return m, nil

	case appsync.TasksChangedMsg:
		cmd := m.taskList.SetTasks(msg.Tasks)
		return m, tea.Batch(cmd, m.watcher.WaitForNextResult())

	case appsync.NotificationsDerivedMsg:
		var cmds []tea.Cmd
		if msg.PlaySound {
			// The audible cue boundary: ring the terminal bell once
			// per batch.
			cmds = append(cmds, tea.Printf("\a"))
		}
		cmds = append(cmds, m.watcher.WaitForNextResult())
		return m, tea.Batch(cmds...)

	case appsync.WatchErrorMsg:
		m.statusMessage = fmt.Sprintf("เกิดข้อผิดพลาด: %v", msg.Err)
		return m, m.watcher.WaitForNextResult()

	case notificationsSnapshotMsg:
		m.notifications = msg.notifications
		m.unreadCount = 0
		for _, n := range m.notifications {
			if !n.IsRead {
				m.unreadCount++
			}
		}
		cmd := m.notifView.SetNotifications(m.notifications)
		return m, tea.Batch(cmd, m.waitForNotifications())

	case tasklist.SelectedTaskMsg:
		m.statusMessage = m.taskSummary(msg.TaskID)
		return m, nil

	case notifpanel.ReplaceMsg:
		return m, m.replaceNotifications(msg.Notifications)

	case replaceDoneMsg:
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("บันทึกไม่สำเร็จ: %v", msg.err)
		}
		return m, nil

	case requestform.SubmittedMsg:
		m.currentView = ViewTasks
		return m, m.fileRequest(msg.Tasks, msg.ProjectName)

	case requestform.CancelMsg:
		m.currentView = ViewTasks
		return m, nil

	case requestFiledMsg:
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("ส่งคำขอไม่สำเร็จ: %v", msg.err)
		} else {
			m.statusMessage = fmt.Sprintf("สร้างงาน %v แล้ว", msg.ids)
		}
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("เกิดข้อผิดพลาด: %v", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveView(msg)
}

// handleKey processes global keys, then delegates to the active view.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// The form owns all input while active.
	if m.currentView == ViewRequestForm {
		return m.updateActiveView(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.watcher.Stop()
		if m.unsubNotifs != nil {
			m.unsubNotifs()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		if m.currentView != ViewHelp {
			m.previousView = m.currentView
			m.currentView = ViewHelp
		}
		return m, nil

	case key.Matches(msg, m.keys.Back):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil
		}
		if m.currentView != ViewTasks {
			m.currentView = ViewTasks
			return m, nil
		}

	case key.Matches(msg, m.keys.Notifications):
		m.currentView = ViewNotifications
		return m, nil

	case key.Matches(msg, m.keys.NewRequest):
		m.currentView = ViewRequestForm
		return m, m.formView.Start()

	case key.Matches(msg, m.keys.ToggleSound):
		m.soundEnabled = !m.soundEnabled
		enabled := m.soundEnabled
		prefs := m.stores.Prefs
		return m, func() tea.Msg {
			err := prefs.SetBool(context.Background(), store.PrefSoundEnabled, enabled)
			return actionDoneMsg{err: err}
		}
	}

	if m.currentView == ViewTasks {
		if cmd, handled := m.handleTaskAction(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleTaskAction covers mutations on the selected task.
func (m *Model) handleTaskAction(msg tea.KeyMsg) (tea.Cmd, bool) {
	selected := m.taskList.Selected()
	if selected == nil {
		return nil, false
	}
	tasks := m.stores.Tasks
	id := selected.ID

	switch {
	case key.Matches(msg, m.keys.ToggleStar):
		return func() tea.Msg {
			return actionDoneMsg{err: tasks.ToggleStar(context.Background(), id)}
		}, true

	case key.Matches(msg, m.keys.CycleStatus):
		next := nextStatus(selected.Status)
		if next == "" {
			return nil, true
		}
		return func() tea.Msg {
			return actionDoneMsg{err: tasks.SetStatus(context.Background(), id, next)}
		}, true

	case key.Matches(msg, m.keys.DeleteTask):
		return func() tea.Msg {
			return actionDoneMsg{err: tasks.Delete(context.Background(), id)}
		}, true
	}

	return nil, false
}

// nextStatus advances the ordinary lifecycle; terminal states stay put.
func nextStatus(status string) string {
	switch status {
	case model.StatusNotStarted:
		return model.StatusInProgress
	case model.StatusInProgress:
		return model.StatusCompleted
	default:
		return ""
	}
}

// taskSummary builds the status-bar line for a selected task.
func (m Model) taskSummary(taskID string) string {
	for _, t := range m.taskList.Tasks() {
		if t.ID != taskID {
			continue
		}
		summary := fmt.Sprintf("%s · %s · %s", t.ID, t.Title, t.RequesterName)
		if !t.DueDate.IsZero() {
			summary += fmt.Sprintf(" · กำหนดส่ง %s", t.DueDate.Format("02/01/2006"))
		}
		if len(t.Notes) > 0 {
			summary += fmt.Sprintf(" · %d โน้ต", len(t.Notes))
		}
		return summary
	}
	return ""
}

// replaceNotifications persists an edited notification list.
func (m Model) replaceNotifications(ns []model.Notification) tea.Cmd {
	s := m.stores.Notifications
	return func() tea.Msg {
		return replaceDoneMsg{err: s.ReplaceAll(context.Background(), ns)}
	}
}

// fileRequest persists a submitted request form.
func (m Model) fileRequest(items []model.Task, projectName string) tea.Cmd {
	tasks := m.stores.Tasks
	return func() tea.Msg {
		created, err := tasks.CreateRequest(context.Background(), items, projectName)
		if err != nil {
			return requestFiledMsg{err: err}
		}
		ids := make([]string, len(created))
		for i, t := range created {
			ids[i] = t.ID
		}
		return requestFiledMsg{ids: ids}
	}
}

// updateActiveView forwards a message to the current view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewTasks:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewNotifications:
		m.notifView, cmd = m.notifView.Update(msg)
	case ViewRequestForm:
		m.formView, cmd = m.formView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}
	return m, cmd
}

// View renders the active view plus the status bar.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	var content string
	switch m.currentView {
	case ViewTasks:
		content = m.taskList.View()
	case ViewNotifications:
		content = m.notifView.View()
	case ViewRequestForm:
		content = m.formView.View()
	case ViewHelp:
		content = m.helpView.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, m.statusBar())
}

// statusBar renders unread count, sound state, and the last message.
func (m Model) statusBar() string {
	sound := "🔔"
	if !m.soundEnabled {
		sound = "🔕"
	}
	left := fmt.Sprintf("%s  แจ้งเตือน %d", sound, m.unreadCount)
	if m.statusMessage != "" {
		left += "  ·  " + m.statusMessage
	}
	return theme.StatusBarStyle.Width(m.width).Render(left)
}
