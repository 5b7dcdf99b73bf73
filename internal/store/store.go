package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection names used by the application.
const (
	CollectionTasks         = "tasks"
	CollectionNotifications = "notifications"
	CollectionMembers       = "members"
	CollectionPreferences   = "preferences"
	CollectionCounters      = "counters"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is a raw stored record: an identifier plus a JSON payload.
type Document struct {
	ID   string
	Data []byte
}

// SnapshotFunc receives the full document array of a collection. It is
// invoked once immediately after subscribing and again after every change
// to the collection, in the order the store emits snapshots. There is no
// ordering guarantee between different collections.
type SnapshotFunc func(docs []Document)

// OpKind identifies a batch operation.
type OpKind int

const (
	OpSet OpKind = iota
	OpDelete
)

// BatchOp is a single set or delete within an atomic batch write.
type BatchOp struct {
	Kind       OpKind
	Collection string
	ID         string
	Data       []byte // nil for deletes
}

// CollectionStore is a real-time document collection store. It pushes
// full collection snapshots to subscribers on every change and supports
// single-document writes plus an atomic batch write: either every
// operation in the batch is applied or none is.
type CollectionStore interface {
	// Subscribe registers fn for snapshots of the named collection and
	// returns an unsubscribe function.
	Subscribe(collection string, fn SnapshotFunc) (func(), error)

	// GetAll returns the current documents of a collection, ordered by ID.
	GetAll(ctx context.Context, collection string) ([]Document, error)

	// GetDoc returns a single document's payload, or ErrNotFound.
	GetDoc(ctx context.Context, collection, id string) ([]byte, error)

	// SetDoc creates or fully replaces a document.
	SetDoc(ctx context.Context, collection, id string, data []byte) error

	// UpdateDoc applies a shallow JSON merge of patch onto an existing
	// document. Returns ErrNotFound if the document does not exist.
	UpdateDoc(ctx context.Context, collection, id string, patch map[string]any) error

	// DeleteDoc removes a document. Deleting a missing document is not
	// an error.
	DeleteDoc(ctx context.Context, collection, id string) error

	// BatchWrite applies all operations atomically.
	BatchWrite(ctx context.Context, ops []BatchOp) error

	// Close releases the underlying connection and stops all
	// subscriptions.
	Close() error
}

// mergeJSON applies a shallow merge of patch onto a JSON object payload.
func mergeJSON(current []byte, patch map[string]any) ([]byte, error) {
	var fields map[string]any
	if err := json.Unmarshal(current, &fields); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	for k, v := range patch {
		fields[k] = v
	}

	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding document: %w", err)
	}
	return merged, nil
}
