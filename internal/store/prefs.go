package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Preference keys. Values are stored as plain "true"/"false" strings.
const (
	PrefSoundEnabled     = "notification_sound_enabled"
	PrefStatusVisibility = "requester_status_visibility"
)

// prefDoc is the stored shape of a single preference.
type prefDoc struct {
	Value string `json:"value"`
}

// PrefStore persists boolean user preferences as key-value documents.
// Both known preferences default to true when unset or unreadable.
type PrefStore struct {
	cs CollectionStore
}

// NewPrefStore wraps a collection store with preference access.
func NewPrefStore(cs CollectionStore) *PrefStore {
	return &PrefStore{cs: cs}
}

// GetBool returns the stored value for key, or fallback when the
// preference is missing or malformed.
func (s *PrefStore) GetBool(ctx context.Context, key string, fallback bool) bool {
	data, err := s.cs.GetDoc(ctx, CollectionPreferences, key)
	if err != nil {
		return fallback
	}
	var doc prefDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return fallback
	}
	v, err := strconv.ParseBool(doc.Value)
	if err != nil {
		return fallback
	}
	return v
}

// SetBool stores a boolean preference.
func (s *PrefStore) SetBool(ctx context.Context, key string, value bool) error {
	data, err := json.Marshal(prefDoc{Value: strconv.FormatBool(value)})
	if err != nil {
		return fmt.Errorf("encoding preference %s: %w", key, err)
	}
	return s.cs.SetDoc(ctx, CollectionPreferences, key, data)
}

// SoundEnabled reports whether the notification sound cue is on
// (default true).
func (s *PrefStore) SoundEnabled(ctx context.Context) bool {
	return s.GetBool(ctx, PrefSoundEnabled, true)
}

// StatusVisible reports whether requesters may see task status
// (default true).
func (s *PrefStore) StatusVisible(ctx context.Context) bool {
	return s.GetBool(ctx, PrefStatusVisibility, true)
}
