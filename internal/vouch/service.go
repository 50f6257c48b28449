package vouch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"fides/internal/identity"
	"fides/internal/rbac"
	"fides/internal/skill"
	"fides/internal/vouch/metrics"
	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
	"fides/pkg/platform/audit"
	"fides/pkg/platform/sentinel"
	txcontext "fides/pkg/platform/tx"
	"fides/pkg/requestcontext"
)

// Error values callers branch on with dErrors.Is.
var (
	ErrSelfVouch             = dErrors.New(dErrors.CodeValidation, "cannot vouch for yourself")
	ErrGiverNotRegistered    = dErrors.New(dErrors.CodeNotFound, "giver not registered")
	ErrReceiverNotRegistered = dErrors.New(dErrors.CodeNotFound, "receiver not registered")
	ErrSkillNotFound         = dErrors.New(dErrors.CodeNotFound, "skill not found")
	ErrVouchNotFound         = dErrors.New(dErrors.CodeNotFound, "vouch not found")
	ErrUserNotRegistered     = dErrors.New(dErrors.CodeNotFound, "user not registered")
)

// ProfileStore is the slice of the identity store the ledger needs:
// existence checks plus activity and skill-list updates.
type ProfileStore interface {
	FindByID(ctx context.Context, userID id.UserID) (identity.Profile, error)
	Save(ctx context.Context, profile identity.Profile) error
}

// SkillCatalog resolves skill ids against the catalog.
type SkillCatalog interface {
	FindByID(ctx context.Context, skillID id.SkillID) (skill.Skill, error)
}

// ReputationUpdater recomputes and persists a user's score after the
// ledger changes under them.
type ReputationUpdater interface {
	Recompute(ctx context.Context, userID id.UserID) (int, error)
}

// Projector mirrors ledger writes into a derived graph. Failures are
// logged and counted, never surfaced to the caller.
type Projector interface {
	Project(ctx context.Context, v Vouch) error
}

type RoleChecker interface {
	RequireAny(caller id.UserID, roles ...rbac.Role) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates the vouch ledger.
type Service struct {
	store          Store
	profiles       ProfileStore
	skills         SkillCatalog
	reputation     ReputationUpdater
	roles          RoleChecker
	projector      Projector
	tx             txcontext.Transactor
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

func WithProjector(p Projector) Option {
	return func(s *Service) {
		s.projector = p
	}
}

// WithTransactor makes each mutating operation's writes share one commit.
// Without it writes run independently, which is fine for the memory stores.
func WithTransactor(t txcontext.Transactor) Option {
	return func(s *Service) {
		s.tx = t
	}
}

// New constructs a Service.
func New(store Store, profiles ProfileStore, skills SkillCatalog, reputation ReputationUpdater, roles RoleChecker, opts ...Option) *Service {
	s := &Service{
		store:      store,
		profiles:   profiles,
		skills:     skills,
		reputation: reputation,
		roles:      roles,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GiveVouchRequest carries the caller-supplied fields of a new vouch.
type GiveVouchRequest struct {
	Receiver    id.UserID
	SkillID     id.SkillID
	Confidence  int
	Comment     string
	EvidenceRef string
}

// GiveVouch appends a vouch from giver to the receiver and synchronously
// recomputes the receiver's score, so the returned ledger state and the
// score are never observed out of step.
func (s *Service) GiveVouch(ctx context.Context, giver id.UserID, req GiveVouchRequest) (Vouch, error) {
	start := time.Now()

	if giver == req.Receiver {
		return Vouch{}, ErrSelfVouch
	}
	confidence, err := id.ParseConfidence(req.Confidence)
	if err != nil {
		return Vouch{}, err
	}

	giverProfile, err := s.profiles.FindByID(ctx, giver)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Vouch{}, ErrGiverNotRegistered
		}
		return Vouch{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load giver")
	}
	receiverProfile, err := s.profiles.FindByID(ctx, req.Receiver)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Vouch{}, ErrReceiverNotRegistered
		}
		return Vouch{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load receiver")
	}
	if _, err := s.skills.FindByID(ctx, req.SkillID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Vouch{}, ErrSkillNotFound
		}
		return Vouch{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load skill")
	}

	now := requestcontext.Now(ctx)
	v := Vouch{
		ID:          id.NewVouchID(),
		Giver:       giver,
		Receiver:    req.Receiver,
		SkillID:     req.SkillID,
		Confidence:  confidence,
		Comment:     req.Comment,
		EvidenceRef: req.EvidenceRef,
		IssuedAt:    now,
		Valid:       true,
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.store.Append(ctx, v); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append vouch")
		}

		giverProfile.LastActive = now
		if err := s.profiles.Save(ctx, giverProfile); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update giver activity")
		}
		receiverProfile.LastActive = now
		if !receiverProfile.HasSkill(req.SkillID) {
			receiverProfile.Skills = append(receiverProfile.Skills, req.SkillID)
		}
		if err := s.profiles.Save(ctx, receiverProfile); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update receiver profile")
		}

		if _, err := s.reputation.Recompute(ctx, req.Receiver); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to recompute reputation")
		}
		return nil
	})
	if err != nil {
		return Vouch{}, err
	}

	s.project(ctx, v)
	s.logAudit(ctx, audit.ActionVouchIssued, giver, v.ID.String(), "receiver "+req.Receiver.String())
	if s.metrics != nil {
		s.metrics.IncrementVouchesIssued()
		s.metrics.ObserveGiveVouch(start)
	}
	return v, nil
}

// InvalidateVouch flips a vouch to invalid and recomputes the receiver's
// score. Restricted to admins and validators. Invalidating an already
// invalid vouch is a no-op.
func (s *Service) InvalidateVouch(ctx context.Context, caller id.UserID, vouchID id.VouchID, reason string) (Vouch, error) {
	if err := s.roles.RequireAny(caller, rbac.RoleAdmin, rbac.RoleValidator); err != nil {
		return Vouch{}, err
	}

	v, err := s.store.FindByID(ctx, vouchID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Vouch{}, ErrVouchNotFound
		}
		return Vouch{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vouch")
	}
	if !v.Valid {
		return v, nil
	}

	v.Valid = false
	err = s.inTx(ctx, func(ctx context.Context) error {
		if err := s.store.Save(ctx, v); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save vouch")
		}
		if _, err := s.reputation.Recompute(ctx, v.Receiver); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to recompute reputation")
		}
		return nil
	})
	if err != nil {
		return Vouch{}, err
	}

	s.project(ctx, v)
	s.logAudit(ctx, audit.ActionVouchInvalidated, caller, v.ID.String(), reason)
	if s.metrics != nil {
		s.metrics.IncrementVouchesInvalidated()
	}
	return v, nil
}

// Get returns a single vouch record, valid or not.
func (s *Service) Get(ctx context.Context, vouchID id.VouchID) (Vouch, error) {
	v, err := s.store.FindByID(ctx, vouchID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Vouch{}, ErrVouchNotFound
		}
		return Vouch{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load vouch")
	}
	return v, nil
}

// ListByReceiver returns a user's received vouches in receipt order.
func (s *Service) ListByReceiver(ctx context.Context, receiver id.UserID) ([]Vouch, error) {
	if _, err := s.profiles.FindByID(ctx, receiver); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrUserNotRegistered
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	vouches, err := s.store.ListByReceiver(ctx, receiver)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list vouches")
	}
	return vouches, nil
}

// ListByGiver returns the vouches a user has given, in issue order.
func (s *Service) ListByGiver(ctx context.Context, giver id.UserID) ([]Vouch, error) {
	if _, err := s.profiles.FindByID(ctx, giver); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrUserNotRegistered
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	vouches, err := s.store.ListByGiver(ctx, giver)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list vouches")
	}
	return vouches, nil
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.InTx(ctx, fn)
}

func (s *Service) project(ctx context.Context, v Vouch) {
	if s.projector == nil {
		return
	}
	if err := s.projector.Project(ctx, v); err != nil {
		if s.logger != nil {
			s.logger.ErrorContext(ctx, "graph projection failed",
				"vouch_id", v.ID.String(),
				"error", err.Error(),
			)
		}
		if s.metrics != nil {
			s.metrics.IncrementGraphProjectErrors()
		}
	}
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
