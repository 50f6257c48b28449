// Package rbac implements capability checks as explicit role-to-identity
// set membership. Every mutating entry point calls Require with the role it
// needs; there is no role hierarchy, only a per-role administrator role that
// controls grants.
package rbac

import (
	"context"
	"log/slog"
	"sync"

	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
	audit "fides/pkg/platform/audit"
)

// Role names a capability set.
type Role string

const (
	// RoleAdmin may add skills, set country multipliers, verify users,
	// create circles, and administer all roles.
	RoleAdmin Role = "admin"
	// RoleValidator may invalidate vouches.
	RoleValidator Role = "validator"
	// RoleCircleAdmin may admit and remove circle members.
	RoleCircleAdmin Role = "circle_admin"
)

// adminOf maps each role to the role allowed to grant and revoke it.
var adminOf = map[Role]Role{
	RoleAdmin:       RoleAdmin,
	RoleValidator:   RoleAdmin,
	RoleCircleAdmin: RoleAdmin,
}

// IsValid checks if the role is one of the supported values.
func (r Role) IsValid() bool {
	_, ok := adminOf[r]
	return ok
}

// ParseRole constructs a Role from external input.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
	return r, nil
}

// AuditPublisher emits audit events for role changes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service holds the role grants. The deployer principal passed to New gets
// the admin role so the system is administrable from the first operation.
type Service struct {
	mu     sync.RWMutex
	grants map[Role]map[id.UserID]struct{}

	auditor AuditPublisher
	logger  *slog.Logger
}

type Option func(*Service)

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func New(owner id.UserID, opts ...Option) *Service {
	s := &Service{
		grants: map[Role]map[id.UserID]struct{}{
			RoleAdmin:       {},
			RoleValidator:   {},
			RoleCircleAdmin: {},
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if !owner.IsNil() {
		s.grants[RoleAdmin][owner] = struct{}{}
	}
	return s
}

// HasRole reports whether the identity holds the role.
func (s *Service) HasRole(role Role, userID id.UserID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[role][userID]
	return ok
}

// HasAnyRole reports whether the identity holds at least one of the roles.
func (s *Service) HasAnyRole(userID id.UserID, roles ...Role) bool {
	for _, r := range roles {
		if s.HasRole(r, userID) {
			return true
		}
	}
	return false
}

// Require returns a forbidden error when the caller lacks the role.
func (s *Service) Require(role Role, caller id.UserID) error {
	if !s.HasRole(role, caller) {
		return dErrors.New(dErrors.CodeForbidden, "missing role "+string(role))
	}
	return nil
}

// RequireAny returns a forbidden error when the caller holds none of the roles.
func (s *Service) RequireAny(caller id.UserID, roles ...Role) error {
	if !s.HasAnyRole(caller, roles...) {
		return dErrors.New(dErrors.CodeForbidden, "missing required role")
	}
	return nil
}

// Grant adds an identity to a role's set. Only holders of the role's
// administrator role may grant it. Granting an already-held role is a no-op.
func (s *Service) Grant(ctx context.Context, caller id.UserID, role Role, userID id.UserID) error {
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
	if err := s.Require(adminOf[role], caller); err != nil {
		return err
	}

	s.mu.Lock()
	_, already := s.grants[role][userID]
	s.grants[role][userID] = struct{}{}
	s.mu.Unlock()

	if already {
		return nil
	}
	s.emit(ctx, audit.ActionRoleGranted, caller, role, userID)
	return nil
}

// Revoke removes an identity from a role's set. Revoking an unheld role is
// a no-op.
func (s *Service) Revoke(ctx context.Context, caller id.UserID, role Role, userID id.UserID) error {
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}
	if err := s.Require(adminOf[role], caller); err != nil {
		return err
	}

	s.mu.Lock()
	_, held := s.grants[role][userID]
	delete(s.grants[role], userID)
	s.mu.Unlock()

	if !held {
		return nil
	}
	s.emit(ctx, audit.ActionRoleRevoked, caller, role, userID)
	return nil
}

func (s *Service) emit(ctx context.Context, action audit.Action, caller id.UserID, role Role, subject id.UserID) {
	if s.auditor == nil {
		return
	}
	_ = s.auditor.Emit(ctx, audit.Event{
		Action:  action,
		Actor:   caller,
		Subject: subject.String(),
		Reason:  string(role),
	})
}
