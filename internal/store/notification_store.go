package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"github.com/prdesk/prdesk/internal/model"
)

// NotificationStore is the typed accessor for the notification
// collection. Mutation goes through ReplaceAll: callers edit an in-memory
// list (delete one, mark read, clear all) and hand the result back; the
// store reconciles the remote collection to match in one atomic batch.
type NotificationStore struct {
	cs CollectionStore
}

// NewNotificationStore wraps a collection store with notification-typed
// operations.
func NewNotificationStore(cs CollectionStore) *NotificationStore {
	return &NotificationStore{cs: cs}
}

// decodeNotifications converts raw documents, skipping records that do
// not parse.
func decodeNotifications(docs []Document) []model.Notification {
	ns := make([]model.Notification, 0, len(docs))
	for _, doc := range docs {
		var n model.Notification
		if err := json.Unmarshal(doc.Data, &n); err != nil {
			log.Printf("skipping malformed notification document %s: %v", doc.ID, err)
			continue
		}
		if n.ID == "" {
			n.ID = doc.ID
		}
		ns = append(ns, n)
	}
	sort.SliceStable(ns, func(i, j int) bool {
		return ns[i].Timestamp.After(ns[j].Timestamp)
	})
	return ns
}

// List returns all notifications, newest first.
func (s *NotificationStore) List(ctx context.Context) ([]model.Notification, error) {
	docs, err := s.cs.GetAll(ctx, CollectionNotifications)
	if err != nil {
		return nil, err
	}
	return decodeNotifications(docs), nil
}

// Create persists a single new notification.
func (s *NotificationStore) Create(ctx context.Context, n model.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding notification %s: %w", n.ID, err)
	}
	return s.cs.SetDoc(ctx, CollectionNotifications, n.ID, data)
}

// CreateBatch persists several notifications in one atomic write.
func (s *NotificationStore) CreateBatch(ctx context.Context, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	ops := make([]BatchOp, 0, len(ns))
	for _, n := range ns {
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encoding notification %s: %w", n.ID, err)
		}
		ops = append(ops, BatchOp{
			Kind:       OpSet,
			Collection: CollectionNotifications,
			ID:         n.ID,
			Data:       data,
		})
	}
	return s.cs.BatchWrite(ctx, ops)
}

// ReplaceAll reconciles the remote notification collection to be
// set-equal to ns: documents present remotely but absent from ns are
// deleted, new or changed entries are upserted, and the whole change goes
// out as one atomic batch. When remote state already matches, no write is
// issued at all. A rejected batch leaves the remote collection unchanged.
func (s *NotificationStore) ReplaceAll(ctx context.Context, ns []model.Notification) error {
	remote, err := s.cs.GetAll(ctx, CollectionNotifications)
	if err != nil {
		return fmt.Errorf("reading notifications: %w", err)
	}

	remoteByID := make(map[string][]byte, len(remote))
	for _, doc := range remote {
		remoteByID[doc.ID] = doc.Data
	}

	var ops []BatchOp
	keep := make(map[string]bool, len(ns))
	for _, n := range ns {
		keep[n.ID] = true
		data, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("encoding notification %s: %w", n.ID, err)
		}
		if existing, ok := remoteByID[n.ID]; ok && bytes.Equal(existing, data) {
			continue
		}
		ops = append(ops, BatchOp{
			Kind:       OpSet,
			Collection: CollectionNotifications,
			ID:         n.ID,
			Data:       data,
		})
	}
	for _, doc := range remote {
		if !keep[doc.ID] {
			ops = append(ops, BatchOp{
				Kind:       OpDelete,
				Collection: CollectionNotifications,
				ID:         doc.ID,
			})
		}
	}

	if len(ops) == 0 {
		return nil
	}
	return s.cs.BatchWrite(ctx, ops)
}

// Subscribe registers fn for full notification snapshots, newest first.
func (s *NotificationStore) Subscribe(fn func(ns []model.Notification)) (func(), error) {
	return s.cs.Subscribe(CollectionNotifications, func(docs []Document) {
		fn(decodeNotifications(docs))
	})
}

// MarkRead returns a copy of ns with IsRead set on every notification
// referencing taskID. The caller persists the result via ReplaceAll.
func MarkRead(ns []model.Notification, taskID string) []model.Notification {
	out := make([]model.Notification, len(ns))
	copy(out, ns)
	for i := range out {
		if out[i].TaskID == taskID {
			out[i].IsRead = true
		}
	}
	return out
}

// MarkAllRead returns a copy of ns with IsRead set on every notification.
func MarkAllRead(ns []model.Notification) []model.Notification {
	out := make([]model.Notification, len(ns))
	copy(out, ns)
	for i := range out {
		out[i].IsRead = true
	}
	return out
}
