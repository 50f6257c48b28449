package proposal

import (
	"time"

	id "fides/pkg/domain"
)

// State is a proposal's position in its lifecycle. It is derived from the
// clock and the executed flag, never stored.
type State string

const (
	// StatePending means voting has not opened yet.
	StatePending State = "pending"
	// StateOpen means votes are being accepted.
	StateOpen State = "open"
	// StateClosed means the voting window has ended without execution.
	StateClosed State = "closed"
	// StateExecuted means the proposal passed and its payout ran.
	StateExecuted State = "executed"
)

// Proposal is a funding request raised inside a circle.
type Proposal struct {
	ID           id.ProposalID `json:"id"`
	CircleID     id.CircleID   `json:"circle_id"`
	Proposer     id.UserID     `json:"proposer"`
	Title        string        `json:"title"`
	Description  string        `json:"description,omitempty"`
	Recipient    id.UserID     `json:"recipient"`
	Amount       uint64        `json:"amount"`
	CreatedAt    time.Time     `json:"created_at"`
	VoteStart    time.Time     `json:"vote_start"`
	VoteEnd      time.Time     `json:"vote_end"`
	ForVotes     int           `json:"for_votes"`
	AgainstVotes int           `json:"against_votes"`
	Executed     bool          `json:"executed"`
}

// StateAt derives the proposal's lifecycle state at the given instant.
func (p Proposal) StateAt(now time.Time) State {
	if p.Executed {
		return StateExecuted
	}
	if now.Before(p.VoteStart) {
		return StatePending
	}
	if !now.After(p.VoteEnd) {
		return StateOpen
	}
	return StateClosed
}
