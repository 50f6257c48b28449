package proposal

import (
	"context"
	"sort"
	"sync"

	id "fides/pkg/domain"
	"fides/pkg/platform/sentinel"
)

// InMemoryStore keeps proposals in process memory. The mutex makes the
// check-then-set in RecordVote and MarkExecuted atomic, which is what
// keeps double votes and double payouts out.
type InMemoryStore struct {
	mu        sync.Mutex
	nextID    id.ProposalID
	proposals map[id.ProposalID]*record
}

type record struct {
	proposal Proposal
	voters   map[id.UserID]struct{}
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		nextID:    1,
		proposals: make(map[id.ProposalID]*record),
	}
}

func (s *InMemoryStore) Create(_ context.Context, p Proposal) (id.ProposalID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	s.proposals[p.ID] = &record{proposal: p, voters: make(map[id.UserID]struct{})}
	return p.ID, nil
}

func (s *InMemoryStore) FindByID(_ context.Context, proposalID id.ProposalID) (Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.proposals[proposalID]
	if !ok {
		return Proposal{}, sentinel.ErrNotFound
	}
	return rec.proposal, nil
}

func (s *InMemoryStore) ListByCircle(_ context.Context, circleID id.CircleID) ([]Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Proposal
	for _, rec := range s.proposals {
		if rec.proposal.CircleID == circleID {
			out = append(out, rec.proposal)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) RecordVote(_ context.Context, proposalID id.ProposalID, voter id.UserID, support bool) (Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.proposals[proposalID]
	if !ok {
		return Proposal{}, sentinel.ErrNotFound
	}
	if _, voted := rec.voters[voter]; voted {
		return Proposal{}, sentinel.ErrConflict
	}
	rec.voters[voter] = struct{}{}
	if support {
		rec.proposal.ForVotes++
	} else {
		rec.proposal.AgainstVotes++
	}
	return rec.proposal, nil
}

func (s *InMemoryStore) MarkExecuted(_ context.Context, proposalID id.ProposalID) (Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.proposals[proposalID]
	if !ok {
		return Proposal{}, sentinel.ErrNotFound
	}
	if rec.proposal.Executed {
		return Proposal{}, sentinel.ErrInvalidState
	}
	rec.proposal.Executed = true
	return rec.proposal, nil
}
