package store_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prdesk/prdesk/internal/store"
	"github.com/prdesk/prdesk/tests/testutil"
)

func TestSQLiteDocumentCRUD(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	_, err := s.GetDoc(ctx, store.CollectionTasks, "PR001")
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.SetDoc(ctx, store.CollectionTasks, "PR001", []byte(`{"title":"a"}`)))

	data, err := s.GetDoc(ctx, store.CollectionTasks, "PR001")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"a"}`, string(data))

	// Replace.
	require.NoError(t, s.SetDoc(ctx, store.CollectionTasks, "PR001", []byte(`{"title":"b"}`)))
	data, err = s.GetDoc(ctx, store.CollectionTasks, "PR001")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"b"}`, string(data))

	require.NoError(t, s.DeleteDoc(ctx, store.CollectionTasks, "PR001"))
	_, err = s.GetDoc(ctx, store.CollectionTasks, "PR001")
	assert.ErrorIs(t, err, store.ErrNotFound)

	// Deleting a missing document is fine.
	assert.NoError(t, s.DeleteDoc(ctx, store.CollectionTasks, "PR001"))
}

func TestSQLiteGetAllOrdersByIDAndScopesCollection(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetDoc(ctx, store.CollectionTasks, "PR002", []byte(`{}`)))
	require.NoError(t, s.SetDoc(ctx, store.CollectionTasks, "PR001", []byte(`{}`)))
	require.NoError(t, s.SetDoc(ctx, store.CollectionMembers, "TM001", []byte(`{}`)))

	docs, err := s.GetAll(ctx, store.CollectionTasks)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "PR001", docs[0].ID)
	assert.Equal(t, "PR002", docs[1].ID)
}

func TestSQLiteUpdateDocMergesShallow(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetDoc(ctx, store.CollectionTasks, "PR001",
		[]byte(`{"title":"a","status":"NOT_STARTED"}`)))

	err := s.UpdateDoc(ctx, store.CollectionTasks, "PR001",
		map[string]any{"status": "IN_PROGRESS"})
	require.NoError(t, err)

	data, err := s.GetDoc(ctx, store.CollectionTasks, "PR001")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"a","status":"IN_PROGRESS"}`, string(data))
}

func TestSQLiteUpdateDocMissing(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.UpdateDoc(context.Background(), store.CollectionTasks, "nope",
		map[string]any{"status": "IN_PROGRESS"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSQLiteBatchWriteAtomicity(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetDoc(ctx, store.CollectionTasks, "PR001", []byte(`{"v":1}`)))

	// A bad op in the middle must roll back the whole batch.
	err := s.BatchWrite(ctx, []store.BatchOp{
		{Kind: store.OpSet, Collection: store.CollectionTasks, ID: "PR002", Data: []byte(`{"v":2}`)},
		{Kind: store.OpKind(99), Collection: store.CollectionTasks, ID: "PR003"},
	})
	require.Error(t, err)

	_, err = s.GetDoc(ctx, store.CollectionTasks, "PR002")
	assert.ErrorIs(t, err, store.ErrNotFound, "partial batch must not be visible")

	// A valid batch applies every op.
	err = s.BatchWrite(ctx, []store.BatchOp{
		{Kind: store.OpSet, Collection: store.CollectionTasks, ID: "PR002", Data: []byte(`{"v":2}`)},
		{Kind: store.OpDelete, Collection: store.CollectionTasks, ID: "PR001"},
	})
	require.NoError(t, err)

	_, err = s.GetDoc(ctx, store.CollectionTasks, "PR001")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetDoc(ctx, store.CollectionTasks, "PR002")
	assert.NoError(t, err)
}

// snapshotRecorder captures the most recent snapshot a subscription
// delivered. Intermediate snapshots may be coalesced, so assertions go
// against the latest state.
type snapshotRecorder struct {
	mu     sync.Mutex
	latest []store.Document
	seen   bool
}

func (r *snapshotRecorder) record(docs []store.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.latest = docs
	r.seen = true
}

func (r *snapshotRecorder) ids() ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.seen {
		return nil, false
	}
	out := make([]string, 0, len(r.latest))
	for _, d := range r.latest {
		out = append(out, d.ID)
	}
	return out, true
}

func TestSQLiteSubscribeDeliversInitialAndChangeSnapshots(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetDoc(ctx, store.CollectionTasks, "PR001", []byte(`{}`)))

	var rec snapshotRecorder
	unsub, err := s.Subscribe(store.CollectionTasks, rec.record)
	require.NoError(t, err)
	defer unsub()

	require.Eventually(t, func() bool {
		ids, ok := rec.ids()
		return ok && len(ids) == 1 && ids[0] == "PR001"
	}, time.Second, 5*time.Millisecond, "initial snapshot")

	require.NoError(t, s.SetDoc(ctx, store.CollectionTasks, "PR002", []byte(`{}`)))

	require.Eventually(t, func() bool {
		ids, _ := rec.ids()
		return len(ids) == 2
	}, time.Second, 5*time.Millisecond, "change snapshot")
}

func TestSQLiteSubscribeIgnoresOtherCollections(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	var rec snapshotRecorder
	unsub, err := s.Subscribe(store.CollectionNotifications, rec.record)
	require.NoError(t, err)
	defer unsub()

	require.Eventually(t, func() bool {
		_, ok := rec.ids()
		return ok
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.SetDoc(ctx, store.CollectionTasks, "PR001", []byte(`{}`)))
	require.NoError(t, s.SetDoc(ctx, store.CollectionNotifications, "n1", []byte(`{}`)))

	require.Eventually(t, func() bool {
		ids, _ := rec.ids()
		return len(ids) == 1 && ids[0] == "n1"
	}, time.Second, 5*time.Millisecond)
}

func TestSQLiteUnsubscribeStopsDelivery(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	var rec snapshotRecorder
	unsub, err := s.Subscribe(store.CollectionTasks, rec.record)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, ok := rec.ids()
		return ok
	}, time.Second, 5*time.Millisecond)

	unsub()
	require.NoError(t, s.SetDoc(ctx, store.CollectionTasks, "PR001", []byte(`{}`)))

	time.Sleep(50 * time.Millisecond)
	ids, _ := rec.ids()
	assert.Empty(t, ids, "no snapshot after unsubscribe")
}

func TestSQLiteSubscribeAfterClose(t *testing.T) {
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = s.Subscribe(store.CollectionTasks, func([]store.Document) {})
	assert.Error(t, err)
}
