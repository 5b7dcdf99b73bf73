package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"github.com/prdesk/prdesk/internal/model"
)

// MemberStore is the typed accessor for the team-member collection. It
// is primarily a lookup table: assignment pickers and notification
// messages resolve display names through it.
type MemberStore struct {
	cs CollectionStore
}

// NewMemberStore wraps a collection store with member-typed operations.
func NewMemberStore(cs CollectionStore) *MemberStore {
	return &MemberStore{cs: cs}
}

// List returns all team members sorted by name.
func (s *MemberStore) List(ctx context.Context) ([]model.TeamMember, error) {
	docs, err := s.cs.GetAll(ctx, CollectionMembers)
	if err != nil {
		return nil, err
	}

	members := make([]model.TeamMember, 0, len(docs))
	for _, doc := range docs {
		var m model.TeamMember
		if err := json.Unmarshal(doc.Data, &m); err != nil {
			log.Printf("skipping malformed member document %s: %v", doc.ID, err)
			continue
		}
		if m.ID == "" {
			m.ID = doc.ID
		}
		members = append(members, m)
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].Name < members[j].Name
	})
	return members, nil
}

// Get returns a single team member by ID.
func (s *MemberStore) Get(ctx context.Context, id string) (*model.TeamMember, error) {
	data, err := s.cs.GetDoc(ctx, CollectionMembers, id)
	if err != nil {
		return nil, err
	}
	var m model.TeamMember
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding member %s: %w", id, err)
	}
	return &m, nil
}

// Put creates or replaces a team member. Generates an ID if empty.
func (s *MemberStore) Put(ctx context.Context, m model.TeamMember) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding member %s: %w", m.ID, err)
	}
	return s.cs.SetDoc(ctx, CollectionMembers, m.ID, data)
}

// Delete removes a team member by ID.
func (s *MemberStore) Delete(ctx context.Context, id string) error {
	return s.cs.DeleteDoc(ctx, CollectionMembers, id)
}

// NameOf resolves a member ID to a display name, falling back to the raw
// ID when the member record is missing.
func (s *MemberStore) NameOf(ctx context.Context, id string) string {
	m, err := s.Get(ctx, id)
	if err != nil {
		return id
	}
	return m.Name
}
