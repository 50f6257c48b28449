package circle

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"fides/internal/rbac"
	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
	"fides/pkg/platform/audit"
	"fides/pkg/platform/sentinel"
	"fides/pkg/requestcontext"
)

// Error values callers branch on with dErrors.Is. ErrReputationTooLow is
// distinct from a role failure so callers can tell a score gate from a
// missing capability.
var (
	ErrCircleNotFound   = dErrors.New(dErrors.CodeNotFound, "circle not found")
	ErrReputationTooLow = dErrors.New(dErrors.CodeForbidden, "reputation too low to join")
	ErrAlreadyMember    = dErrors.New(dErrors.CodeConflict, "already a member")
	ErrNotAMember       = dErrors.New(dErrors.CodeNotFound, "not a member")
)

// ReputationReader resolves a user's current score for gate checks.
type ReputationReader interface {
	Score(ctx context.Context, userID id.UserID) (int, error)
}

type RoleChecker interface {
	Require(role rbac.Role, caller id.UserID) error
	RequireAny(caller id.UserID, roles ...rbac.Role) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service gates circle membership on reputation. Admission checks the
// score once, at the door: later decay does not evict members.
type Service struct {
	store          Store
	reputation     ReputationReader
	roles          RoleChecker
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

// New constructs a Service.
func New(store Store, reputation ReputationReader, roles RoleChecker, opts ...Option) *Service {
	s := &Service{store: store, reputation: reputation, roles: roles}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateCircle registers a new circle. Admin only.
func (s *Service) CreateCircle(ctx context.Context, caller id.UserID, name string, minJoin, minCreate int, openJoin bool) (Circle, error) {
	if err := s.roles.Require(rbac.RoleAdmin, caller); err != nil {
		return Circle{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Circle{}, dErrors.New(dErrors.CodeValidation, "circle name is required")
	}
	if minJoin < 0 || minCreate < 0 {
		return Circle{}, dErrors.New(dErrors.CodeValidation, "reputation thresholds cannot be negative")
	}

	c := Circle{
		ID:                    id.NewCircleID(),
		Name:                  name,
		MinReputationToJoin:   minJoin,
		MinReputationToCreate: minCreate,
		OpenJoin:              openJoin,
		CreatedAt:             requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, c); err != nil {
		return Circle{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create circle")
	}

	s.logAudit(ctx, audit.ActionCircleCreated, caller, c.ID.String(), name, "")
	return c, nil
}

// Admit adds a user to a circle if their score clears the bar. Circle
// admins admit anyone; a user may admit themselves into open-join circles.
func (s *Service) Admit(ctx context.Context, caller id.UserID, circleID id.CircleID, userID id.UserID) error {
	c, err := s.get(ctx, circleID)
	if err != nil {
		return err
	}

	selfJoin := caller == userID && c.OpenJoin
	if !selfJoin {
		if err := s.roles.RequireAny(caller, rbac.RoleAdmin, rbac.RoleCircleAdmin); err != nil {
			return err
		}
	}

	score, err := s.reputation.Score(ctx, userID)
	if err != nil {
		return err
	}
	if score < c.MinReputationToJoin {
		s.logAudit(ctx, audit.ActionMemberAdmitted, caller, userID.String(), "reputation too low", "denied")
		return ErrReputationTooLow
	}

	if err := s.store.AddMember(ctx, circleID, userID); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return ErrAlreadyMember
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add member")
	}

	s.logAudit(ctx, audit.ActionMemberAdmitted, caller, userID.String(), c.Name, "admitted")
	return nil
}

// Remove evicts a member. Restricted to admins and circle admins.
func (s *Service) Remove(ctx context.Context, caller id.UserID, circleID id.CircleID, userID id.UserID) error {
	if err := s.roles.RequireAny(caller, rbac.RoleAdmin, rbac.RoleCircleAdmin); err != nil {
		return err
	}
	if _, err := s.get(ctx, circleID); err != nil {
		return err
	}

	if err := s.store.RemoveMember(ctx, circleID, userID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ErrNotAMember
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to remove member")
	}

	s.logAudit(ctx, audit.ActionMemberRemoved, caller, userID.String(), "", "removed")
	return nil
}

// IsMember reports whether the user currently belongs to the circle.
func (s *Service) IsMember(ctx context.Context, circleID id.CircleID, userID id.UserID) (bool, error) {
	member, err := s.store.IsMember(ctx, circleID, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, ErrCircleNotFound
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check membership")
	}
	return member, nil
}

// Get returns a circle by id.
func (s *Service) Get(ctx context.Context, circleID id.CircleID) (Circle, error) {
	return s.get(ctx, circleID)
}

// List returns all circles sorted by name.
func (s *Service) List(ctx context.Context) ([]Circle, error) {
	circles, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list circles")
	}
	return circles, nil
}

// Members returns a circle's current member set.
func (s *Service) Members(ctx context.Context, circleID id.CircleID) ([]id.UserID, error) {
	members, err := s.store.Members(ctx, circleID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrCircleNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list members")
	}
	return members, nil
}

func (s *Service) get(ctx context.Context, circleID id.CircleID) (Circle, error) {
	c, err := s.store.FindByID(ctx, circleID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Circle{}, ErrCircleNotFound
		}
		return Circle{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load circle")
	}
	return c, nil
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, actor id.UserID, subject, reason, decision string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"actor", actor.String(),
			"subject", subject,
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
		Reason:   reason,
		Decision: decision,
	})
}
