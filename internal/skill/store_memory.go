package skill

import (
	"context"
	"sort"
	"strings"
	"sync"

	id "fides/pkg/domain"
	"fides/pkg/platform/sentinel"
)

// InMemoryStore holds the skill catalog in process memory.
type InMemoryStore struct {
	mu     sync.RWMutex
	skills map[id.SkillID]Skill
	byName map[string]id.SkillID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		skills: make(map[id.SkillID]Skill),
		byName: make(map[string]id.SkillID),
	}
}

func (s *InMemoryStore) Create(_ context.Context, sk Skill) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.ToLower(sk.Name)
	if _, exists := s.skills[sk.ID]; exists {
		return sentinel.ErrConflict
	}
	if _, exists := s.byName[key]; exists {
		return sentinel.ErrConflict
	}
	s.skills[sk.ID] = sk
	s.byName[key] = sk.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, skillID id.SkillID) (Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sk, ok := s.skills[skillID]; ok {
		return sk, nil
	}
	return Skill{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context) ([]Skill, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Skill, 0, len(s.skills))
	for _, sk := range s.skills {
		out = append(out, sk)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
