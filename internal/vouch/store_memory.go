package vouch

import (
	"context"
	"sync"

	id "fides/pkg/domain"
	"fides/pkg/platform/sentinel"
)

// InMemoryStore keeps the ledger in process memory. Per-user slices
// preserve receipt order.
type InMemoryStore struct {
	mu         sync.RWMutex
	byID       map[id.VouchID]Vouch
	byReceiver map[id.UserID][]id.VouchID
	byGiver    map[id.UserID][]id.VouchID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:       make(map[id.VouchID]Vouch),
		byReceiver: make(map[id.UserID][]id.VouchID),
		byGiver:    make(map[id.UserID][]id.VouchID),
	}
}

func (s *InMemoryStore) Append(_ context.Context, v Vouch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[v.ID]; exists {
		return sentinel.ErrConflict
	}
	s.byID[v.ID] = v
	s.byReceiver[v.Receiver] = append(s.byReceiver[v.Receiver], v.ID)
	s.byGiver[v.Giver] = append(s.byGiver[v.Giver], v.ID)
	return nil
}

func (s *InMemoryStore) Save(_ context.Context, v Vouch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[v.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.byID[v.ID] = v
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, vouchID id.VouchID) (Vouch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.byID[vouchID]; ok {
		return v, nil
	}
	return Vouch{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByReceiver(_ context.Context, receiver id.UserID) ([]Vouch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byReceiver[receiver]), nil
}

func (s *InMemoryStore) ListByGiver(_ context.Context, giver id.UserID) ([]Vouch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(s.byGiver[giver]), nil
}

func (s *InMemoryStore) collect(ids []id.VouchID) []Vouch {
	out := make([]Vouch, 0, len(ids))
	for _, vid := range ids {
		out = append(out, s.byID[vid])
	}
	return out
}
