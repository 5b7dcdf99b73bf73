package store

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// connectTimeout bounds the initial MongoDB connection attempt.
const connectTimeout = 10 * time.Second

// mongoDoc is the stored shape of a document in a Mongo collection.
type mongoDoc struct {
	ID   string `bson:"_id"`
	Data string `bson:"data"`
}

// MongoStore implements CollectionStore on a MongoDB database. The store
// is treated as a dumb document collection: reconciliation stays entirely
// client-side, so subscriptions are served by polling each collection and
// emitting a full snapshot whenever its contents change. Change streams
// were deliberately not used; both backends present identical
// snapshot-subscription semantics this way.
type MongoStore struct {
	client   *mongo.Client
	db       *mongo.Database
	interval time.Duration

	mu     sync.Mutex
	subs   []*mongoSub
	closed bool
}

// mongoSub holds the stop channel for one subscription poller. Both the
// unsubscribe function and Close stop subscriptions, so the channel close
// is guarded to make the two paths safe in either order.
type mongoSub struct {
	stop chan struct{}

	mu     sync.Mutex
	closed bool
}

// close stops the poller. Idempotent.
func (sub *mongoSub) close() {
	sub.mu.Lock()
	defer sub.mu.Unlock()

	if !sub.closed {
		sub.closed = true
		close(sub.stop)
	}
}

// NewMongoStore connects to MongoDB at uri and returns a store over the
// named database. pollInterval controls how often subscriptions check for
// changes.
func NewMongoStore(ctx context.Context, uri, database string, pollInterval time.Duration) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri must not be empty")
	}
	if pollInterval <= 0 {
		pollInterval = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	return &MongoStore{
		client:   client,
		db:       client.Database(database),
		interval: pollInterval,
	}, nil
}

// Close stops all subscription pollers and disconnects.
func (s *MongoStore) Close() error {
	s.closeSubs()

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// closeSubs marks the store closed and stops every registered poller.
func (s *MongoStore) closeSubs() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		for _, sub := range s.subs {
			sub.close()
		}
		s.subs = nil
	}
	s.mu.Unlock()
}

// Subscribe polls the collection and invokes fn with a full snapshot
// immediately and after every observed change.
func (s *MongoStore) Subscribe(collection string, fn SnapshotFunc) (func(), error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("subscribing to %s: store is closed", collection)
	}
	sub := &mongoSub{stop: make(chan struct{})}
	s.subs = append(s.subs, sub)
	s.mu.Unlock()

	docs, err := s.GetAll(context.Background(), collection)
	if err != nil {
		s.removeSub(sub)
		return nil, err
	}
	lastHash := snapshotHash(docs)
	fn(docs)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-sub.stop:
				return
			case <-ticker.C:
				docs, err := s.GetAll(context.Background(), collection)
				if err != nil {
					continue
				}
				if h := snapshotHash(docs); h != lastHash {
					lastHash = h
					fn(docs)
				}
			}
		}
	}()

	return func() { s.removeSub(sub) }, nil
}

// removeSub detaches sub from the registry and stops its poller.
func (s *MongoStore) removeSub(sub *mongoSub) {
	s.mu.Lock()
	for i, candidate := range s.subs {
		if candidate == sub {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	sub.close()
}

// snapshotHash fingerprints a snapshot for cheap change detection.
func snapshotHash(docs []Document) uint64 {
	h := fnv.New64a()
	for _, d := range docs {
		h.Write([]byte(d.ID))
		h.Write([]byte{0})
		h.Write(d.Data)
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// GetAll returns the documents of a collection ordered by ID.
func (s *MongoStore) GetAll(ctx context.Context, collection string) ([]Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := s.db.Collection(collection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("querying collection %s: %w", collection, err)
	}
	defer cursor.Close(ctx)

	var docs []Document
	for cursor.Next(ctx) {
		var md mongoDoc
		if err := cursor.Decode(&md); err != nil {
			return nil, fmt.Errorf("decoding document in %s: %w", collection, err)
		}
		docs = append(docs, Document{ID: md.ID, Data: []byte(md.Data)})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return docs, nil
}

// GetDoc returns a single document payload, or ErrNotFound.
func (s *MongoStore) GetDoc(ctx context.Context, collection, id string) ([]byte, error) {
	var md mongoDoc
	err := s.db.Collection(collection).
		FindOne(ctx, bson.M{"_id": id}).
		Decode(&md)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting document %s/%s: %w", collection, id, err)
	}
	return []byte(md.Data), nil
}

// SetDoc creates or fully replaces a document.
func (s *MongoStore) SetDoc(ctx context.Context, collection, id string, data []byte) error {
	opts := options.Replace().SetUpsert(true)
	_, err := s.db.Collection(collection).ReplaceOne(
		ctx,
		bson.M{"_id": id},
		mongoDoc{ID: id, Data: string(data)},
		opts,
	)
	if err != nil {
		return fmt.Errorf("setting document %s/%s: %w", collection, id, err)
	}
	return nil
}

// UpdateDoc applies a shallow JSON merge of patch onto an existing
// document.
func (s *MongoStore) UpdateDoc(ctx context.Context, collection, id string, patch map[string]any) error {
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
func (s *MongoStore) DeleteDoc(ctx context.Context, collection, id string) error {
	_, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting document %s/%s: %w", collection, id, err)
	}
	return nil
}

// BatchWrite applies all operations atomically inside a transaction
// session. Servers without replica sets reject transactions; in that case
// the batch falls back to an ordered write, which loses atomicity across
// documents but preserves ordering.
func (s *MongoStore) BatchWrite(ctx context.Context, ops []BatchOp) error {
	if len(ops) == 0 {
		return nil
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting batch session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, s.applyOps(sc, ops)
	})
	if err != nil {
		if isTransactionUnsupported(err) {
			return s.applyOps(ctx, ops)
		}
		return fmt.Errorf("batch write: %w", err)
	}

	return nil
}

// applyOps executes the batch operations in order against ctx, which may
// be a transaction session context.
func (s *MongoStore) applyOps(ctx context.Context, ops []BatchOp) error {
	for _, op := range ops {
		var err error
		switch op.Kind {
		case OpSet:
			err = s.SetDoc(ctx, op.Collection, op.ID, op.Data)
		case OpDelete:
			err = s.DeleteDoc(ctx, op.Collection, op.ID)
		default:
			err = fmt.Errorf("unknown batch op kind %d", op.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// isTransactionUnsupported detects the standalone-server error for
// multi-document transactions.
func isTransactionUnsupported(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		// 20 = IllegalOperation, raised for transaction attempts on
		// standalone deployments.
		return cmdErr.Code == 20
	}
	return false
}
