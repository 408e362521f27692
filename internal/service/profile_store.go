package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"concierge/internal/model"
	"concierge/internal/storage"
)

// DefaultProfileKey is the storage key under which the lead profile is kept
const DefaultProfileKey = "leadProfile"

// ProfileStore persists lead profiles as JSON through a key-value store.
// Each visitor gets its own key; an empty visitor id uses the bare key.
type ProfileStore struct {
	kv  storage.KeyValue
	key string
}

// NewProfileStore creates a profile store over kv
func NewProfileStore(kv storage.KeyValue, key string) *ProfileStore {
	if key == "" {
		key = DefaultProfileKey
	}
	return &ProfileStore{kv: kv, key: key}
}

func (s *ProfileStore) storageKey(visitorID string) string {
	if visitorID == "" {
		return s.key
	}
	return s.key + ":" + visitorID
}

// Load returns the stored profile, or an empty one when nothing is stored
func (s *ProfileStore) Load(ctx context.Context, visitorID string) (model.LeadProfile, error) {
	raw, err := s.kv.Get(ctx, s.storageKey(visitorID))
	if errors.Is(err, storage.ErrNotFound) {
		return model.LeadProfile{}, nil
	}
	if err != nil {
		return model.LeadProfile{}, fmt.Errorf("failed to load lead profile: %w", err)
	}

	var profile model.LeadProfile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return model.LeadProfile{}, fmt.Errorf("failed to decode lead profile: %w", err)
	}
	return profile, nil
}

// Save overwrites the stored profile in full
func (s *ProfileStore) Save(ctx context.Context, visitorID string, profile model.LeadProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode lead profile: %w", err)
	}
	if err := s.kv.Set(ctx, s.storageKey(visitorID), string(data)); err != nil {
		return fmt.Errorf("failed to save lead profile: %w", err)
	}
	return nil
}

// Clear removes the stored profile
func (s *ProfileStore) Clear(ctx context.Context, visitorID string) error {
	if err := s.kv.Remove(ctx, s.storageKey(visitorID)); err != nil {
		return fmt.Errorf("failed to clear lead profile: %w", err)
	}
	return nil
}
