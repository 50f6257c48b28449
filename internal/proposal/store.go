package proposal

import (
	"context"

	id "fides/pkg/domain"
)

// Store persists proposals and their vote tallies. Ids are assigned by
// the store as a monotonic counter. RecordVote must reject a second vote
// from the same user with sentinel.ErrConflict, and MarkExecuted must
// reject a second execution with sentinel.ErrInvalidState; both checks
// have to be atomic with the write.
type Store interface {
	Create(ctx context.Context, p Proposal) (id.ProposalID, error)
	FindByID(ctx context.Context, proposalID id.ProposalID) (Proposal, error)
	ListByCircle(ctx context.Context, circleID id.CircleID) ([]Proposal, error)
	RecordVote(ctx context.Context, proposalID id.ProposalID, voter id.UserID, support bool) (Proposal, error)
	MarkExecuted(ctx context.Context, proposalID id.ProposalID) (Proposal, error)
}
