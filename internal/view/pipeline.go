// Package view derives displayed task lists from the raw collection:
// a pure filter/sort pipeline with no I/O.
package view

import (
	"sort"
	"strings"
	"time"

	"github.com/prdesk/prdesk/internal/model"
)

// SortKey selects the ordering of the derived view.
type SortKey string

const (
	SortNewest  SortKey = "newest"
	SortOldest  SortKey = "oldest"
	SortDueDate SortKey = "dueDate"
	SortID      SortKey = "id"
)

// Criteria is the set of AND-combined predicates a dashboard applies.
// Nil pointer fields mean "no constraint".
type Criteria struct {
	StarredOnly bool
	Status      *string
	TaskType    *string
	AssigneeID  *string

	// SearchText matches case-insensitively as a substring of the task
	// ID, title, or requester name.
	SearchText string

	// From/To bound the task creation timestamp (inclusive).
	From *time.Time
	To   *time.Time
}

// Apply returns a new slice holding the tasks that pass every criteria
// stage, ordered by sortKey. The input is never mutated; ties keep their
// input order (stable sort), and an unknown sort key leaves the filtered
// order untouched.
func Apply(tasks []model.Task, c Criteria, key SortKey) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if matches(t, c) {
			out = append(out, t)
		}
	}

	switch key {
	case SortNewest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Timestamp.After(out[j].Timestamp)
		})
	case SortOldest:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Timestamp.Before(out[j].Timestamp)
		})
	case SortDueDate:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].DueDate.Before(out[j].DueDate)
		})
	case SortID:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].ID < out[j].ID
		})
	}

	return out
}

// matches evaluates the criteria stages in fixed order. All stages are
// independent AND predicates, so the order only controls short-circuiting.
func matches(t model.Task, c Criteria) bool {
	if c.StarredOnly && !t.IsStarred {
		return false
	}
	if c.Status != nil && t.Status != *c.Status {
		return false
	}
	if c.TaskType != nil && t.TaskType != *c.TaskType {
		return false
	}
	if c.AssigneeID != nil {
		if t.AssigneeID == nil || *t.AssigneeID != *c.AssigneeID {
			return false
		}
	}
	if c.SearchText != "" && !matchesSearch(t, c.SearchText) {
		return false
	}
	if c.From != nil && t.Timestamp.Before(*c.From) {
		return false
	}
	if c.To != nil && t.Timestamp.After(*c.To) {
		return false
	}
	return true
}

// matchesSearch checks the free-text stage across ID, title, and
// requester name.
func matchesSearch(t model.Task, query string) bool {
	q := strings.ToLower(query)
	return strings.Contains(strings.ToLower(t.ID), q) ||
		strings.Contains(strings.ToLower(t.Title), q) ||
		strings.Contains(strings.ToLower(t.RequesterName), q)
}
