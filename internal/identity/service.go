package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"fides/internal/identity/metrics"
	"fides/internal/rbac"
	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
	"fides/pkg/platform/audit"
	"fides/pkg/platform/sentinel"
	"fides/pkg/requestcontext"
)

// Error values callers branch on with dErrors.Is.
var (
	ErrAlreadyRegistered = dErrors.New(dErrors.CodeConflict, "user already registered")
	ErrNotRegistered     = dErrors.New(dErrors.CodeNotFound, "user not registered")
)

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type RoleChecker interface {
	Require(role rbac.Role, caller id.UserID) error
}

// Service orchestrates the user registry.
type Service struct {
	store          Store
	roles          RoleChecker
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
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

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service. The role checker gates verification.
func New(store Store, roles RoleChecker, opts ...Option) *Service {
	s := &Service{store: store, roles: roles}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a profile for a new user with the base reputation score.
// Returns CodeConflict if the user already registered.
func (s *Service) Register(ctx context.Context, userID id.UserID, displayName string, country string, evidenceRef string) (Profile, error) {
	start := time.Now()

	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return Profile{}, dErrors.New(dErrors.CodeValidation, "display name is required")
	}
	cc, err := id.ParseCountryCode(country)
	if err != nil {
		return Profile{}, err
	}

	now := requestcontext.Now(ctx)
	profile := Profile{
		ID:          userID,
		DisplayName: displayName,
		Country:     cc,
		EvidenceRef: evidenceRef,
		JoinedAt:    now,
		LastActive:  now,
		Reputation:  BaseReputation,
	}

	if err := s.store.Create(ctx, profile); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Profile{}, ErrAlreadyRegistered
		}
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create profile")
	}

	s.logAudit(ctx, audit.ActionUserRegistered, userID, userID.String(), "registered from "+cc.String())
	if s.metrics != nil {
		s.metrics.IncrementUsersRegistered()
		s.metrics.ObserveRegister(start)
	}
	return profile, nil
}

// GetProfile returns the profile for a registered user.
func (s *Service) GetProfile(ctx context.Context, userID id.UserID) (Profile, error) {
	profile, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Profile{}, ErrNotRegistered
		}
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return profile, nil
}

// MarkVerified flags a user as identity-verified. Admin only.
func (s *Service) MarkVerified(ctx context.Context, caller id.UserID, userID id.UserID) (Profile, error) {
	if err := s.roles.Require(rbac.RoleAdmin, caller); err != nil {
		return Profile{}, err
	}

	profile, err := s.GetProfile(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	if profile.Verified {
		return profile, nil
	}

	profile.Verified = true
	if err := s.store.Save(ctx, profile); err != nil {
		return Profile{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
	}

	s.logAudit(ctx, audit.ActionUserVerified, caller, userID.String(), "")
	if s.metrics != nil {
		s.metrics.IncrementUsersVerified()
	}
	return profile, nil
}

// Touch bumps a user's last-active timestamp to the request time.
func (s *Service) Touch(ctx context.Context, userID id.UserID) error {
	profile, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return ErrNotRegistered
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	profile.LastActive = requestcontext.Now(ctx)
	if err := s.store.Save(ctx, profile); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save profile")
	}
	return nil
}

func (s *Service) logAudit(ctx context.Context, action audit.Action, actor id.UserID, subject string, reason string) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(action),
			"actor", actor.String(),
			"subject", subject,
			"log_type", "audit")
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Action:  action,
		Actor:   actor,
		Subject: subject,
		Reason:  reason,
	})
}
