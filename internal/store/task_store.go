package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/prdesk/prdesk/internal/model"
)

// taskCounter is the counter document tracking the last issued task
// sequence number.
type taskCounter struct {
	Value int `json:"value"`
}

// counterDocID is the counter document's ID within CollectionCounters.
const counterDocID = "tasks"

// TaskStore is the typed accessor for the task collection.
type TaskStore struct {
	cs CollectionStore
}

// NewTaskStore wraps a collection store with task-typed operations.
func NewTaskStore(cs CollectionStore) *TaskStore {
	return &TaskStore{cs: cs}
}

// decodeTasks converts raw documents into tasks, skipping records that do
// not parse. A malformed document degrades to a log line, never a failure.
func decodeTasks(docs []Document) []model.Task {
	tasks := make([]model.Task, 0, len(docs))
	for _, doc := range docs {
		var t model.Task
		if err := json.Unmarshal(doc.Data, &t); err != nil {
			log.Printf("skipping malformed task document %s: %v", doc.ID, err)
			continue
		}
		if t.ID == "" {
			t.ID = doc.ID
		}
		tasks = append(tasks, t)
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks
}

// List returns all tasks ordered by ID.
func (s *TaskStore) List(ctx context.Context) ([]model.Task, error) {
	docs, err := s.cs.GetAll(ctx, CollectionTasks)
	if err != nil {
		return nil, err
	}
	return decodeTasks(docs), nil
}

// Get returns a single task by ID.
func (s *TaskStore) Get(ctx context.Context, id string) (*model.Task, error) {
	data, err := s.cs.GetDoc(ctx, CollectionTasks, id)
	if err != nil {
		return nil, err
	}
	var t model.Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decoding task %s: %w", id, err)
	}
	return &t, nil
}

// Put creates or fully replaces a task.
func (s *TaskStore) Put(ctx context.Context, t model.Task) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encoding task %s: %w", t.ID, err)
	}
	return s.cs.SetDoc(ctx, CollectionTasks, t.ID, data)
}

// Delete removes a task by ID.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	return s.cs.DeleteDoc(ctx, CollectionTasks, id)
}

// SetStatus updates only the status field of a task.
func (s *TaskStore) SetStatus(ctx context.Context, id, status string) error {
	return s.cs.UpdateDoc(ctx, CollectionTasks, id, map[string]any{"status": status})
}

// SetAssignee updates only the assignee of a task. Pass nil to unassign.
func (s *TaskStore) SetAssignee(ctx context.Context, id string, assigneeID *string) error {
	var v any
	if assigneeID != nil {
		v = *assigneeID
	}
	return s.cs.UpdateDoc(ctx, CollectionTasks, id, map[string]any{"assignee_id": v})
}

// ToggleStar flips the starred flag of a task.
func (s *TaskStore) ToggleStar(ctx context.Context, id string) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	return s.cs.UpdateDoc(ctx, CollectionTasks, id,
		map[string]any{"is_starred": !t.IsStarred})
}

// AddNote appends a team annotation to a task's note thread.
func (s *TaskStore) AddNote(ctx context.Context, id, author, text string) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	t.Notes = append(t.Notes, model.TaskNote{
		ID:        uuid.New().String(),
		Author:    author,
		Timestamp: time.Now().UTC(),
		Text:      text,
	})
	return s.Put(ctx, *t)
}

// Subscribe registers fn for full task snapshots, decoded and ordered by
// ID. The unsubscribe function cancels delivery.
func (s *TaskStore) Subscribe(fn func(tasks []model.Task)) (func(), error) {
	return s.cs.Subscribe(CollectionTasks, func(docs []Document) {
		fn(decodeTasks(docs))
	})
}

// NextTaskID issues the next monotonic task identifier (PR001, PR002...).
// The counter lives in its own collection; a single logical writer per
// process keeps the read-modify-write safe.
func (s *TaskStore) NextTaskID(ctx context.Context) (string, error) {
	var counter taskCounter
	data, err := s.cs.GetDoc(ctx, CollectionCounters, counterDocID)
	switch {
	case errors.Is(err, ErrNotFound):
		// First ever task.
	case err != nil:
		return "", fmt.Errorf("reading task counter: %w", err)
	default:
		if err := json.Unmarshal(data, &counter); err != nil {
			return "", fmt.Errorf("decoding task counter: %w", err)
		}
	}

	counter.Value++
	updated, err := json.Marshal(counter)
	if err != nil {
		return "", fmt.Errorf("encoding task counter: %w", err)
	}
	if err := s.cs.SetDoc(ctx, CollectionCounters, counterDocID, updated); err != nil {
		return "", fmt.Errorf("advancing task counter: %w", err)
	}

	return model.FormatTaskID(counter.Value), nil
}

// CreateRequest persists a requester submission. A single task becomes a
// standalone request; multiple tasks become sibling items sharing a fresh
// project ID and the given project name. IDs, timestamps, and the initial
// status are assigned here; input-time validation runs per item.
func (s *TaskStore) CreateRequest(ctx context.Context, items []model.Task, projectName string) ([]model.Task, error) {
	if len(items) == 0 {
		return nil, errors.New("request must contain at least one task")
	}

	now := time.Now().UTC()
	projectID := ""
	if len(items) > 1 {
		projectID = uuid.New().String()
	}

	created := make([]model.Task, 0, len(items))
	ops := make([]BatchOp, 0, len(items))
	for _, item := range items {
		item.Timestamp = now
		item.Status = model.StatusNotStarted
		item.ProjectID = projectID
		if projectID != "" {
			item.ProjectName = projectName
		}
		if err := model.ValidateRequest(item); err != nil {
			return nil, err
		}

		id, err := s.NextTaskID(ctx)
		if err != nil {
			return nil, err
		}
		item.ID = id

		data, err := json.Marshal(item)
		if err != nil {
			return nil, fmt.Errorf("encoding task %s: %w", id, err)
		}
		ops = append(ops, BatchOp{
			Kind:       OpSet,
			Collection: CollectionTasks,
			ID:         id,
			Data:       data,
		})
		created = append(created, item)
	}

	if err := s.cs.BatchWrite(ctx, ops); err != nil {
		return nil, err
	}
	return created, nil
}
