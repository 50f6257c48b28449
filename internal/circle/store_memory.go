package circle

import (
	"context"
	"sort"
	"sync"

	id "fides/pkg/domain"
	"fides/pkg/platform/sentinel"
)

// InMemoryStore keeps circles and membership in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	circles map[id.CircleID]Circle
	members map[id.CircleID]map[id.UserID]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		circles: make(map[id.CircleID]Circle),
		members: make(map[id.CircleID]map[id.UserID]struct{}),
	}
}

func (s *InMemoryStore) Create(_ context.Context, c Circle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.circles[c.ID]; exists {
		return sentinel.ErrConflict
	}
	s.circles[c.ID] = c
	s.members[c.ID] = make(map[id.UserID]struct{})
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, circleID id.CircleID) (Circle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if c, ok := s.circles[circleID]; ok {
		return c, nil
	}
	return Circle{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]Circle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Circle, 0, len(s.circles))
	for _, c := range s.circles {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) AddMember(_ context.Context, circleID id.CircleID, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.members[circleID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if _, exists := members[userID]; exists {
		return sentinel.ErrConflict
	}
	members[userID] = struct{}{}
	return nil
}

func (s *InMemoryStore) RemoveMember(_ context.Context, circleID id.CircleID, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.members[circleID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if _, exists := members[userID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(members, userID)
	return nil
}

func (s *InMemoryStore) IsMember(_ context.Context, circleID id.CircleID, userID id.UserID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members, ok := s.members[circleID]
	if !ok {
		return false, sentinel.ErrNotFound
	}
	_, exists := members[userID]
	return exists, nil
}

func (s *InMemoryStore) Members(_ context.Context, circleID id.CircleID) ([]id.UserID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members, ok := s.members[circleID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]id.UserID, 0, len(members))
	for m := range members {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}
