package sync_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prdesk/prdesk/internal/model"
	"github.com/prdesk/prdesk/internal/notify"
	"github.com/prdesk/prdesk/internal/store"
	watchsync "github.com/prdesk/prdesk/internal/sync"
	"github.com/prdesk/prdesk/tests/testutil"
)

type watcherFixture struct {
	watcher       *watchsync.Watcher
	tasks         *store.TaskStore
	notifications *store.NotificationStore
}

func newWatcherFixture(t *testing.T) *watcherFixture {
	cs := testutil.NewTestStore(t)
	tasks := store.NewTaskStore(cs)
	notifications := store.NewNotificationStore(cs)
	prefs := store.NewPrefStore(cs)

	deriver := &notify.Deriver{
		ResolveName: func(id string) string { return "สมาชิก " + id },
	}

	w := watchsync.New(tasks, notifications, prefs, deriver, 3, time.Hour)
	cmd := w.Start()
	require.NotNil(t, cmd)
	t.Cleanup(w.Stop)

	return &watcherFixture{watcher: w, tasks: tasks, notifications: notifications}
}

// countByType tallies persisted notifications for one task.
func (f *watcherFixture) countByType(t *testing.T, taskID string) map[model.NotificationType]int {
	t.Helper()
	ns, err := f.notifications.List(context.Background())
	require.NoError(t, err)

	counts := make(map[model.NotificationType]int)
	for _, n := range ns {
		if n.TaskID == taskID {
			counts[n.Type]++
		}
	}
	return counts
}

func (f *watcherFixture) eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 10*time.Millisecond, msg)
}

func newRequest(title string, dueIn time.Duration) model.Task {
	return model.Task{
		RequesterName: "อาจารย์วิชัย",
		TaskType:      model.TaskTypeGraphic,
		Title:         title,
		DueDate:       time.Now().Add(dueIn),
	}
}

func TestWatcherDerivesNewTaskAndDueSoon(t *testing.T) {
	f := newWatcherFixture(t)
	ctx := context.Background()

	created, err := f.tasks.CreateRequest(ctx, []model.Task{newRequest("โปสเตอร์", 48 * time.Hour)}, "")
	require.NoError(t, err)
	id := created[0].ID

	f.eventually(t, func() bool {
		c := f.countByType(t, id)
		return c[model.NotificationNewTask] == 1 && c[model.NotificationDueSoon] == 1
	}, "one NEW_TASK and one DUE_SOON for the created task")

	// Force another snapshot with no semantic change; the due-soon scan
	// must not duplicate its notification.
	require.NoError(t, f.tasks.ToggleStar(ctx, id))
	f.eventually(t, func() bool {
		ns, err := f.tasks.Get(ctx, id)
		return err == nil && ns.IsStarred
	}, "star persisted")

	time.Sleep(50 * time.Millisecond)
	c := f.countByType(t, id)
	assert.Equal(t, 1, c[model.NotificationDueSoon], "due-soon stays idempotent across snapshots")
	assert.Equal(t, 1, c[model.NotificationNewTask])
}

func TestWatcherDerivesStatusChange(t *testing.T) {
	f := newWatcherFixture(t)
	ctx := context.Background()

	created, err := f.tasks.CreateRequest(ctx, []model.Task{newRequest("วิดีโอ", 30 * 24 * time.Hour)}, "")
	require.NoError(t, err)
	id := created[0].ID

	f.eventually(t, func() bool {
		return f.countByType(t, id)[model.NotificationNewTask] == 1
	}, "creation processed")

	require.NoError(t, f.tasks.SetStatus(ctx, id, model.StatusCompleted))

	f.eventually(t, func() bool {
		return f.countByType(t, id)[model.NotificationStatusUpdate] == 1
	}, "status change derived")

	ns, err := f.notifications.List(ctx)
	require.NoError(t, err)
	var msg string
	for _, n := range ns {
		if n.Type == model.NotificationStatusUpdate {
			msg = n.Message
		}
	}
	assert.Contains(t, msg, "เสร็จสิ้น")
}

func TestWatcherDerivesAssignment(t *testing.T) {
	f := newWatcherFixture(t)
	ctx := context.Background()

	created, err := f.tasks.CreateRequest(ctx, []model.Task{newRequest("ภาพข่าว", 30 * 24 * time.Hour)}, "")
	require.NoError(t, err)
	id := created[0].ID

	f.eventually(t, func() bool {
		return f.countByType(t, id)[model.NotificationNewTask] == 1
	}, "creation processed")

	tm1 := "TM001"
	require.NoError(t, f.tasks.SetAssignee(ctx, id, &tm1))

	f.eventually(t, func() bool {
		return f.countByType(t, id)[model.NotificationNewAssignment] == 1
	}, "assignment derived")

	// Reassignment between members stays silent.
	tm2 := "TM002"
	require.NoError(t, f.tasks.SetAssignee(ctx, id, &tm2))
	f.eventually(t, func() bool {
		got, err := f.tasks.Get(ctx, id)
		return err == nil && got.AssigneeID != nil && *got.AssigneeID == "TM002"
	}, "reassignment persisted")

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, f.countByType(t, id)[model.NotificationNewAssignment])
}

func TestWatcherBaselineEmitsNoNotifications(t *testing.T) {
	cs := testutil.NewTestStore(t)
	tasks := store.NewTaskStore(cs)
	notifications := store.NewNotificationStore(cs)
	prefs := store.NewPrefStore(cs)
	ctx := context.Background()

	// Tasks that exist before the watcher starts form the baseline.
	_, err := tasks.CreateRequest(ctx, []model.Task{newRequest("งานเดิม", 30 * 24 * time.Hour)}, "")
	require.NoError(t, err)

	w := watchsync.New(tasks, notifications, prefs, &notify.Deriver{}, 3, time.Hour)
	require.NotNil(t, w.Start())
	t.Cleanup(w.Stop)

	time.Sleep(100 * time.Millisecond)
	ns, err := notifications.List(ctx)
	require.NoError(t, err)
	for _, n := range ns {
		assert.NotEqual(t, model.NotificationNewTask, n.Type,
			"pre-existing tasks must not produce NEW_TASK on startup")
	}
}
