package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements CollectionStore on a local SQLite database.
// Documents live in a single table keyed by (collection, id); snapshot
// subscribers are fed through per-subscriber channels so each receives
// snapshots in FIFO order without blocking writers.
type SQLiteStore struct {
	db *sqlx.DB

	mu     sync.Mutex
	subs   map[string][]*subscriber
	nextID int
	closed bool
}

// subscriber holds the delivery channel for one subscription. The channel
// has capacity 1 and is written with replace semantics: a newer snapshot
// displaces an undelivered older one, so a slow consumer always observes
// the latest state.
type subscriber struct {
	id         int
	collection string
	ch         chan []Document

	mu     sync.Mutex
	closed bool
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:   db,
		subs: make(map[string][]*subscriber),
	}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close stops all subscriptions and closes the database.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for _, subs := range s.subs {
			for _, sub := range subs {
				sub.close()
			}
		}
		s.subs = make(map[string][]*subscriber)
	}
	s.mu.Unlock()

	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// Subscribe registers fn for snapshots of the collection. The current
// snapshot is delivered immediately; subsequent snapshots follow every
// change. The returned function cancels the subscription.
func (s *SQLiteStore) Subscribe(collection string, fn SnapshotFunc) (func(), error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("subscribing to %s: store is closed", collection)
	}
	s.nextID++
	sub := &subscriber{
		id:         s.nextID,
		collection: collection,
		ch:         make(chan []Document, 1),
	}
	s.subs[collection] = append(s.subs[collection], sub)
	s.mu.Unlock()

	// One delivery goroutine per subscriber keeps callback invocations
	// serialized and in order.
	go func() {
		for docs := range sub.ch {
			fn(docs)
		}
	}()

	// Initial snapshot.
	docs, err := s.GetAll(context.Background(), collection)
	if err != nil {
		s.removeSubscriber(sub)
		return nil, err
	}
	sub.push(docs)

	return func() { s.removeSubscriber(sub) }, nil
}

// removeSubscriber detaches sub and closes its channel.
func (s *SQLiteStore) removeSubscriber(sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	subs := s.subs[sub.collection]
	for i, candidate := range subs {
		if candidate.id == sub.id {
			s.subs[sub.collection] = append(subs[:i], subs[i+1:]...)
			sub.close()
			return
		}
	}
}

// close marks the subscriber dead and closes its delivery channel.
func (sub *subscriber) close() {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	if !sub.closed {
		sub.closed = true
		close(sub.ch)
	}
}

// push delivers docs with replace semantics: an undelivered older
// snapshot is dropped in favor of the newer one. Pushing to a cancelled
// subscriber is a no-op.
func (sub *subscriber) push(docs []Document) {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	if sub.closed {
		return
	}
	for {
		select {
		case sub.ch <- docs:
			return
		default:
			select {
			case <-sub.ch:
			default:
			}
		}
	}
}

// notify reads the current snapshot of each named collection and fans it
// out to that collection's subscribers.
func (s *SQLiteStore) notify(collections ...string) {
	for _, collection := range collections {
		docs, err := s.GetAll(context.Background(), collection)
		if err != nil {
			continue
		}

		s.mu.Lock()
		subs := make([]*subscriber, len(s.subs[collection]))
		copy(subs, s.subs[collection])
		s.mu.Unlock()

		for _, sub := range subs {
			sub.push(docs)
		}
	}
}

// GetAll returns the documents of a collection ordered by ID.
func (s *SQLiteStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT id, data FROM documents WHERE collection = ? ORDER BY id",
		collection,
	)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docs = append(docs, Document{ID: id, Data: []byte(data)})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

// GetDoc returns a single document payload, or ErrNotFound.
func (s *SQLiteStore) GetDoc(ctx context.Context, collection, id string) ([]byte, error) {
	var data string
	err := s.db.GetContext(ctx, &data,
		"SELECT data FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document %s/%s: %w", collection, id, err)
	}
	return []byte(data), nil
}

// SetDoc creates or fully replaces a document.
func (s *SQLiteStore) SetDoc(ctx context.Context, collection, id string, data []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (collection, id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at`,
		collection, id, string(data), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("setting document %s/%s: %w", collection, id, err)
	}

	s.notify(collection)
	return nil
}

// UpdateDoc applies a shallow JSON merge of patch onto an existing
// document.
func (s *SQLiteStore) UpdateDoc(ctx context.Context, collection, id string, patch map[string]any) error {
	current, err := s.GetDoc(ctx, collection, id)
	if err != nil {
		return err
	}

	merged, err := mergeJSON(current, patch)
	if err != nil {
		return fmt.Errorf("merging document %s/%s: %w", collection, id, err)
	}

	return s.SetDoc(ctx, collection, id, merged)
}

// DeleteDoc removes a document. Missing documents are ignored.
func (s *SQLiteStore) DeleteDoc(ctx context.Context, collection, id string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM documents WHERE collection = ? AND id = ?",
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("deleting document %s/%s: %w", collection, id, err)
	}

	s.notify(collection)
	return nil
}

// BatchWrite applies all operations in a single transaction. On failure
// nothing is committed and no snapshot is emitted.
func (s *SQLiteStore) BatchWrite(ctx context.Context, ops []BatchOp) error {
	if len(ops) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning batch transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	touched := make(map[string]bool)

	for _, op := range ops {
		switch op.Kind {
		case OpSet:
			_, err = tx.ExecContext(ctx, `
				INSERT INTO documents (collection, id, data, updated_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (collection, id) DO UPDATE SET
					data = excluded.data,
					updated_at = excluded.updated_at`,
				op.Collection, op.ID, string(op.Data), now,
			)
		case OpDelete:
			_, err = tx.ExecContext(ctx,
				"DELETE FROM documents WHERE collection = ? AND id = ?",
				op.Collection, op.ID,
			)
		default:
			err = fmt.Errorf("unknown batch op kind %d", op.Kind)
		}
		if err != nil {
			return fmt.Errorf("batch write %s/%s: %w", op.Collection, op.ID, err)
		}
		touched[op.Collection] = true
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch write: %w", err)
	}

	collections := make([]string, 0, len(touched))
	for c := range touched {
		collections = append(collections, c)
	}
	s.notify(collections...)

	return nil
}
