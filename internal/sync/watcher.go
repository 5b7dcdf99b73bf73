// Package sync wires the task-collection subscription to the reconciler
// and notification deriver, and runs the periodic due-soon scan.
package sync

import (
	"context"
	"log"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/prdesk/prdesk/internal/model"
	"github.com/prdesk/prdesk/internal/notify"
	"github.com/prdesk/prdesk/internal/reconcile"
	"github.com/prdesk/prdesk/internal/store"
)

// TasksChangedMsg is a tea.Msg carrying the latest full task snapshot.
type TasksChangedMsg struct {
	Tasks []model.Task
}

// NotificationsDerivedMsg is a tea.Msg sent when the watcher persisted
// newly derived notifications. PlaySound is true when a non-empty batch
// of new-task notifications arrived and the sound preference is on.
type NotificationsDerivedMsg struct {
	New       []model.Notification
	PlaySound bool
}

// WatchErrorMsg is a tea.Msg carrying a persistence failure. The watcher
// never retries; the UI surfaces the error.
type WatchErrorMsg struct {
	Err error
}

// Watcher owns the reconciliation state for the task subscription: the
// previous snapshot, the one-shot baseline flag (inside the Reconciler),
// and the derived-notification plumbing. Only the watcher loop touches
// that state, so no locking is needed around it.
type Watcher struct {
	tasks         *store.TaskStore
	notifications *store.NotificationStore
	prefs         *store.PrefStore
	deriver       *notify.Deriver
	rec           *reconcile.Reconciler

	thresholdDays int
	scanInterval  time.Duration

	resultCh   chan tea.Msg
	snapshotCh chan []model.Task
	stopCh     chan struct{}

	mu          gosync.Mutex
	running     bool
	unsubscribe func()
}

// New creates a Watcher over the given stores. thresholdDays and
// scanInterval fall back to defaults when non-positive.
func New(
	tasks *store.TaskStore,
	notifications *store.NotificationStore,
	prefs *store.PrefStore,
	deriver *notify.Deriver,
	thresholdDays int,
	scanInterval time.Duration,
) *Watcher {
	if thresholdDays <= 0 {
		thresholdDays = notify.DefaultDueSoonThresholdDays
	}
	if scanInterval <= 0 {
		scanInterval = time.Hour
	}
	return &Watcher{
		tasks:         tasks,
		notifications: notifications,
		prefs:         prefs,
		deriver:       deriver,
		rec:           reconcile.New(),
		thresholdDays: thresholdDays,
		scanInterval:  scanInterval,
		resultCh:      make(chan tea.Msg, 16),
		snapshotCh:    make(chan []model.Task, 16),
		stopCh:        make(chan struct{}),
	}
}

// Start subscribes to the task collection and starts the watcher loop.
// The returned command waits for the first result message.
func (w *Watcher) Start() tea.Cmd {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	unsubscribe, err := w.tasks.Subscribe(func(tasks []model.Task) {
		select {
		case w.snapshotCh <- tasks:
		default:
			// Drop the oldest pending snapshot; only the latest matters.
			select {
			case <-w.snapshotCh:
			default:
			}
			select {
			case w.snapshotCh <- tasks:
			default:
			}
		}
	})
	if err != nil {
		w.sendResult(WatchErrorMsg{Err: err})
		return w.waitForResult()
	}

	w.mu.Lock()
	w.unsubscribe = unsubscribe
	w.mu.Unlock()

	go w.run()

	return w.waitForResult()
}

// Stop halts the watcher loop and cancels the subscription.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false
	close(w.stopCh)
	if w.unsubscribe != nil {
		w.unsubscribe()
	}
}

// run is the single-writer loop: snapshots and scan ticks are processed
// strictly in arrival order.
func (w *Watcher) run() {
	ticker := time.NewTicker(w.scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case tasks := <-w.snapshotCh:
			w.handleSnapshot(tasks)
		case <-ticker.C:
			w.scanDueSoon(w.rec.Previous())
		}
	}
}

// handleSnapshot reconciles a task snapshot against the previous one and
// derives and persists all resulting notifications.
func (w *Watcher) handleSnapshot(tasks []model.Task) {
	ctx := context.Background()

	prev := w.rec.Previous()
	added := w.rec.Observe(tasks)

	derived, playSound := w.deriver.NewTaskBatch(added)

	// Field-level comparison for tasks present in both snapshots; the
	// reconciler itself only detects additions.
	prevByID := make(map[string]model.Task, len(prev))
	for _, t := range prev {
		prevByID[t.ID] = t
	}
	for _, t := range tasks {
		old, ok := prevByID[t.ID]
		if !ok {
			continue
		}
		if n := w.deriver.Assignment(old, t); n != nil {
			derived = append(derived, *n)
		}
		if n := w.deriver.StatusChange(old, t); n != nil {
			derived = append(derived, *n)
		}
	}

	// Due-soon scan runs on every snapshot; the deriver keeps it
	// idempotent against the existing notification set.
	existing, err := w.notifications.List(ctx)
	if err != nil {
		log.Printf("watcher: reading notifications: %v", err)
		w.sendResult(WatchErrorMsg{Err: err})
	} else {
		derived = append(derived, w.deriver.DueSoon(tasks, existing, w.thresholdDays)...)
	}

	if len(derived) > 0 {
		if err := w.notifications.CreateBatch(ctx, derived); err != nil {
			// No retry: the batch either landed or it did not.
			log.Printf("watcher: persisting notifications: %v", err)
			w.sendResult(WatchErrorMsg{Err: err})
			derived = nil
			playSound = false
		}
	}

	w.sendResult(TasksChangedMsg{Tasks: tasks})
	if len(derived) > 0 {
		w.sendResult(NotificationsDerivedMsg{
			New:       derived,
			PlaySound: playSound && w.prefs.SoundEnabled(ctx),
		})
	}
}

// scanDueSoon runs the periodic due-soon check against the latest
// retained snapshot.
func (w *Watcher) scanDueSoon(tasks []model.Task) {
	if len(tasks) == 0 {
		return
	}
	ctx := context.Background()

	existing, err := w.notifications.List(ctx)
	if err != nil {
		log.Printf("watcher: reading notifications: %v", err)
		w.sendResult(WatchErrorMsg{Err: err})
		return
	}

	due := w.deriver.DueSoon(tasks, existing, w.thresholdDays)
	if len(due) == 0 {
		return
	}
	if err := w.notifications.CreateBatch(ctx, due); err != nil {
		log.Printf("watcher: persisting due-soon notifications: %v", err)
		w.sendResult(WatchErrorMsg{Err: err})
		return
	}

	w.sendResult(NotificationsDerivedMsg{New: due})
}

// sendResult sends a message on the result channel without blocking.
func (w *Watcher) sendResult(msg tea.Msg) {
	select {
	case w.resultCh <- msg:
	default:
		// Drop if the channel is full to avoid blocking the loop.
	}
}

// waitForResult returns a tea.Cmd that waits for the next watcher
// message.
func (w *Watcher) waitForResult() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-w.resultCh
		if !ok {
			return nil
		}
		return msg
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next watcher
// message. Call it after processing a message to keep listening.
func (w *Watcher) WaitForNextResult() tea.Cmd {
	return w.waitForResult()
}
