package app_test

import (
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prdesk/prdesk/internal/app"
	"github.com/prdesk/prdesk/internal/notify"
	"github.com/prdesk/prdesk/internal/store"
	appsync "github.com/prdesk/prdesk/internal/sync"
	"github.com/prdesk/prdesk/tests/testutil"
)

// trackingStore records which collections have been unsubscribed.
type trackingStore struct {
	store.CollectionStore

	mu           sync.Mutex
	unsubscribed map[string]int
}

func newTrackingStore(t *testing.T) *trackingStore {
	return &trackingStore{
		CollectionStore: testutil.NewTestStore(t),
		unsubscribed:    make(map[string]int),
	}
}

func (s *trackingStore) Subscribe(collection string, fn store.SnapshotFunc) (func(), error) {
	unsub, err := s.CollectionStore.Subscribe(collection, fn)
	if err != nil {
		return nil, err
	}
	return func() {
		s.mu.Lock()
		s.unsubscribed[collection]++
		s.mu.Unlock()
		unsub()
	}, nil
}

func (s *trackingStore) unsubCount(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsubscribed[collection]
}

func TestQuitCancelsNotificationSubscription(t *testing.T) {
	cs := newTrackingStore(t)
	tasks := store.NewTaskStore(cs)
	notifications := store.NewNotificationStore(cs)
	prefs := store.NewPrefStore(cs)
	members := store.NewMemberStore(cs)

	w := appsync.New(tasks, notifications, prefs, &notify.Deriver{}, 3, time.Hour)

	m := app.New(app.Stores{
		Tasks:         tasks,
		Notifications: notifications,
		Members:       members,
		Prefs:         prefs,
	}, w, 3)

	require.Equal(t, 0, cs.unsubCount(store.CollectionNotifications))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)

	assert.Equal(t, 1, cs.unsubCount(store.CollectionNotifications),
		"quitting should cancel the notification subscription")
}
