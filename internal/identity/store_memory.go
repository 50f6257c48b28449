package identity

import (
	"context"
	"sync"

	id "fides/pkg/domain"
	"fides/pkg/platform/sentinel"
)

// InMemoryStore is the authoritative single-process profile store. Reads
// hand out copies so callers never alias internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	profiles map[id.UserID]Profile
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{profiles: make(map[id.UserID]Profile)}
}

func (s *InMemoryStore) Create(_ context.Context, profile Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[profile.ID]; exists {
		return sentinel.ErrConflict
	}
	s.profiles[profile.ID] = cloneProfile(profile)
	return nil
}

func (s *InMemoryStore) Save(_ context.Context, profile Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.profiles[profile.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.profiles[profile.ID] = cloneProfile(profile)
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, userID id.UserID) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if p, ok := s.profiles[userID]; ok {
		return cloneProfile(p), nil
	}
	return Profile{}, sentinel.ErrNotFound
}

func cloneProfile(p Profile) Profile {
	p.Skills = append([]id.SkillID(nil), p.Skills...)
	return p
}
