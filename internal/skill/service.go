package skill

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"fides/internal/rbac"
	"fides/internal/region"
	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
	"fides/pkg/platform/audit"
	"fides/pkg/platform/sentinel"
	"fides/pkg/requestcontext"
)

// Error values callers branch on with dErrors.Is.
var (
	ErrDuplicateName = dErrors.New(dErrors.CodeConflict, "skill name must be unique")
	ErrSkillNotFound = dErrors.New(dErrors.CodeNotFound, "skill not found")
)

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type RoleChecker interface {
	Require(role rbac.Role, caller id.UserID) error
}

// Service manages the skill catalog. Catalog writes are admin-gated;
// reads are open to any caller.
type Service struct {
	store          Store
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
func New(store Store, roles RoleChecker, opts ...Option) *Service {
	s := &Service{store: store, roles: roles}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddSkillRequest carries the attributes of a new catalog entry. A zero
// Weight takes DefaultWeight; RegionWeights are optional overrides.
type AddSkillRequest struct {
	Name          string
	Category      string
	Weight        int
	RegionWeights map[region.Region]int
}

// AddSkill registers a new catalog entry. Admin only.
func (s *Service) AddSkill(ctx context.Context, caller id.UserID, req AddSkillRequest) (Skill, error) {
	if err := s.roles.Require(rbac.RoleAdmin, caller); err != nil {
		return Skill{}, err
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return Skill{}, dErrors.New(dErrors.CodeValidation, "skill name is required")
	}
	weight := req.Weight
	if weight == 0 {
		weight = DefaultWeight
	}
	if weight < 0 || weight > 1000 {
		return Skill{}, dErrors.New(dErrors.CodeValidation, "skill weight must be between 0 and 1000")
	}
	var overrides map[region.Region]int
	if len(req.RegionWeights) > 0 {
		overrides = make(map[region.Region]int, len(req.RegionWeights))
		for r, w := range req.RegionWeights {
			if !region.Known(r) {
				return Skill{}, dErrors.New(dErrors.CodeValidation, "unknown region in weight overrides")
			}
			if w < 0 || w > 1000 {
				return Skill{}, dErrors.New(dErrors.CodeValidation, "region weight must be between 0 and 1000")
			}
			overrides[r] = w
		}
	}

	sk := Skill{
		ID:            id.NewSkillID(),
		Name:          name,
		Category:      strings.TrimSpace(req.Category),
		Weight:        weight,
		RegionWeights: overrides,
		CreatedAt:     requestcontext.Now(ctx),
	}
	if err := s.store.Create(ctx, sk); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Skill{}, ErrDuplicateName
		}
		return Skill{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create skill")
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, string(audit.ActionSkillAdded),
			"skill_id", sk.ID.String(),
			"name", sk.Name,
			"log_type", "audit")
	}
	if s.auditPublisher != nil {
		_ = s.auditPublisher.Emit(ctx, audit.Event{
			Action:  audit.ActionSkillAdded,
			Actor:   caller,
			Subject: sk.ID.String(),
			Reason:  sk.Name,
		})
	}
	return sk, nil
}

// Get returns a catalog entry by id.
func (s *Service) Get(ctx context.Context, skillID id.SkillID) (Skill, error) {
	sk, err := s.store.FindByID(ctx, skillID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Skill{}, ErrSkillNotFound
		}
		return Skill{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load skill")
	}
	return sk, nil
}

// List returns the whole catalog sorted by name.
func (s *Service) List(ctx context.Context) ([]Skill, error) {
	skills, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list skills")
	}
	return skills, nil
}
