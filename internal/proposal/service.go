package proposal

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"fides/internal/circle"
	"fides/internal/platform/config"
	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
	"fides/pkg/platform/audit"
	"fides/pkg/platform/sentinel"
	"fides/pkg/requestcontext"
)

// Error values callers branch on with dErrors.Is. The window conflicts are
// deliberately distinct: a vote rejected with ErrVotingNotStarted can be
// retried once the window opens, the others are final.
var (
	ErrProposalNotFound = dErrors.New(dErrors.CodeNotFound, "proposal not found")
	ErrNotAMember       = dErrors.New(dErrors.CodeForbidden, "not a circle member")
	ErrReputationTooLow = dErrors.New(dErrors.CodeForbidden, "reputation too low to propose")
	ErrVotingNotStarted = dErrors.New(dErrors.CodeConflict, "voting has not started")
	ErrVotingEnded      = dErrors.New(dErrors.CodeConflict, "voting has ended")
	ErrAlreadyVoted     = dErrors.New(dErrors.CodeConflict, "already voted")
	ErrVotingNotEnded   = dErrors.New(dErrors.CodeConflict, "voting has not ended")
	ErrAlreadyExecuted  = dErrors.New(dErrors.CodeConflict, "proposal already executed")
	ErrProposalRejected = dErrors.New(dErrors.CodeConflict, "proposal was rejected")
)

// CircleGate is the slice of the circle service voting needs: membership
// checks and the per-circle proposal threshold.
type CircleGate interface {
	Get(ctx context.Context, circleID id.CircleID) (circle.Circle, error)
	IsMember(ctx context.Context, circleID id.CircleID, userID id.UserID) (bool, error)
}

// ReputationReader resolves scores for the proposal-creation threshold.
type ReputationReader interface {
	Score(ctx context.Context, userID id.UserID) (int, error)
}

// Disburser carries out the payout of a passed proposal. The engine
// treats it as opaque: the host decides what a transfer means.
type Disburser interface {
	Disburse(ctx context.Context, proposalID id.ProposalID, recipient id.UserID, amount uint64) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs the proposal lifecycle inside circles.
type Service struct {
	store          Store
	circles        CircleGate
	reputation     ReputationReader
	voting         config.VotingConfig
	disburser      Disburser
	logger         *slog.Logger
	auditPublisher AuditPublisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

// WithDisburser wires the payout hook invoked on successful execution.
func WithDisburser(d Disburser) Option {
	return func(s *Service) {
		s.disburser = d
	}
}

// New constructs a Service.
func New(store Store, circles CircleGate, reputation ReputationReader, voting config.VotingConfig, opts ...Option) *Service {
	s := &Service{store: store, circles: circles, reputation: reputation, voting: voting}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateProposalRequest carries the caller-supplied fields of a new
// proposal.
type CreateProposalRequest struct {
	CircleID    id.CircleID
	Title       string
	Description string
	Recipient   id.UserID
	Amount      uint64
}

// CreateProposal raises a funding request in a circle. The voting window
// opens after the configured delay, so members see the proposal before
// votes start landing.
func (s *Service) CreateProposal(ctx context.Context, proposer id.UserID, req CreateProposalRequest) (Proposal, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return Proposal{}, dErrors.New(dErrors.CodeValidation, "title is required")
	}

	c, err := s.circles.Get(ctx, req.CircleID)
	if err != nil {
		return Proposal{}, err
	}
	if err := s.requireMember(ctx, req.CircleID, proposer); err != nil {
		return Proposal{}, err
	}
	if c.MinReputationToCreate > 0 {
		score, err := s.reputation.Score(ctx, proposer)
		if err != nil {
			return Proposal{}, err
		}
		if score < c.MinReputationToCreate {
			return Proposal{}, ErrReputationTooLow
		}
	}

	now := requestcontext.Now(ctx)
	p := Proposal{
		CircleID:    req.CircleID,
		Proposer:    proposer,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Recipient:   req.Recipient,
		Amount:      req.Amount,
		CreatedAt:   now,
		VoteStart:   now.Add(s.voting.Delay),
	}
	p.VoteEnd = p.VoteStart.Add(s.voting.Period)

	proposalID, err := s.store.Create(ctx, p)
	if err != nil {
		return Proposal{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create proposal")
	}
	p.ID = proposalID

	s.logAudit(ctx, audit.ActionProposalCreated, proposer, p, "")
	return p, nil
}

// CastVote records a member's vote while the window is open. One vote per
// member per proposal; votes cannot be changed.
func (s *Service) CastVote(ctx context.Context, voter id.UserID, proposalID id.ProposalID, support bool) (Proposal, error) {
	p, err := s.get(ctx, proposalID)
	if err != nil {
		return Proposal{}, err
	}
	if err := s.requireMember(ctx, p.CircleID, voter); err != nil {
		return Proposal{}, err
	}

	now := requestcontext.Now(ctx)
	switch p.StateAt(now) {
	case StatePending:
		return Proposal{}, ErrVotingNotStarted
	case StateClosed, StateExecuted:
		return Proposal{}, ErrVotingEnded
	}

	p, err = s.store.RecordVote(ctx, proposalID, voter, support)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Proposal{}, ErrAlreadyVoted
		}
		return Proposal{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record vote")
	}

	decision := "against"
	if support {
		decision = "for"
	}
	s.logAudit(ctx, audit.ActionVoteCast, voter, p, decision)
	return p, nil
}

// ExecuteProposal certifies a passed proposal after its window closes and
// triggers the payout when there is one. Anyone may call it; the tally
// decides, not the caller. Execution happens at most once.
func (s *Service) ExecuteProposal(ctx context.Context, caller id.UserID, proposalID id.ProposalID) (Proposal, error) {
	p, err := s.get(ctx, proposalID)
	if err != nil {
		return Proposal{}, err
	}

	now := requestcontext.Now(ctx)
	if p.Executed {
		return Proposal{}, ErrAlreadyExecuted
	}
	if !now.After(p.VoteEnd) {
		return Proposal{}, ErrVotingNotEnded
	}
	if p.ForVotes <= p.AgainstVotes {
		return Proposal{}, ErrProposalRejected
	}

	// The store's check-then-set is the single point that makes
	// execution exactly-once under concurrent callers.
	p, err = s.store.MarkExecuted(ctx, proposalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			return Proposal{}, ErrAlreadyExecuted
		}
		return Proposal{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark executed")
	}

	// Zero-amount proposals certify an outcome without moving funds.
	if s.disburser != nil && p.Amount > 0 && !p.Recipient.IsNil() {
		if err := s.disburser.Disburse(ctx, p.ID, p.Recipient, p.Amount); err != nil {
			// The execution claim stands; the payout needs operator
			// intervention rather than a retry that could double-pay.
			if s.logger != nil {
				s.logger.ErrorContext(ctx, "disbursement failed after execution",
					"proposal_id", uint64(p.ID),
					"error", err.Error(),
				)
			}
			return Proposal{}, dErrors.Wrap(err, dErrors.CodeInternal, "disbursement failed")
		}
	}

	s.logAudit(ctx, audit.ActionProposalExecuted, caller, p, "passed")
	return p, nil
}

// Get returns a proposal by id.
func (s *Service) Get(ctx context.Context, proposalID id.ProposalID) (Proposal, error) {
	return s.get(ctx, proposalID)
}

// ListByCircle returns a circle's proposals in creation order.
func (s *Service) ListByCircle(ctx context.Context, circleID id.CircleID) ([]Proposal, error) {
	if _, err := s.circles.Get(ctx, circleID); err != nil {
		return nil, err
	}
	proposals, err := s.store.ListByCircle(ctx, circleID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list proposals")
	}
	return proposals, nil
}

func (s *Service) get(ctx context.Context, proposalID id.ProposalID) (Proposal, error) {
	p, err := s.store.FindByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Proposal{}, ErrProposalNotFound
		}
		return Proposal{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load proposal")
	}
	return p, nil
}

func (s *Service) requireMember(ctx context.Context, circleID id.CircleID, userID id.UserID) error {
	member, err := s.circles.IsMember(ctx, circleID, userID)
	if err != nil {
		return err
	}
	if !member {
		return ErrNotAMember
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, actor id.UserID, p Proposal, decision string) {
	subject := strconv.FormatUint(uint64(p.ID), 10)
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"actor", actor.String(),
			"proposal_id", subject,
			"circle_id", p.CircleID.String(),
			"decision", decision,
			"log_type", "audit")
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Action:   action,
		Actor:    actor,
		Subject:  subject,
		Decision: decision,
	})
}
