package identity_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"fides/internal/identity"
	"fides/internal/identity/mocks"
	"fides/internal/rbac"
	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
	"fides/pkg/platform/audit"
	"fides/pkg/platform/audit/publisher"
	auditmem "fides/pkg/platform/audit/store/memory"
	"fides/pkg/testutil"
)

type IdentityServiceSuite struct {
	suite.Suite
	store   *identity.InMemoryStore
	roles   *rbac.Service
	events  *auditmem.Store
	service *identity.Service

	admin id.UserID
	now   time.Time
}

func TestIdentityServiceSuite(t *testing.T) {
	suite.Run(t, new(IdentityServiceSuite))
}

func (s *IdentityServiceSuite) SetupTest() {
	s.admin = id.NewUserID()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.store = identity.NewInMemoryStore()
	s.roles = rbac.New(s.admin)
	s.events = auditmem.New()
	s.service = identity.New(s.store, s.roles,
		identity.WithAuditPublisher(publisher.New(s.events)))
}

func (s *IdentityServiceSuite) TestRegister() {
	userID := id.NewUserID()
	ctx := testutil.Ctx(userID, s.now)

	s.Run("creates profile with base reputation", func() {
		profile, err := s.service.Register(ctx, userID, "Amina", "NGA", "ipfs://evidence")
		s.Require().NoError(err)
		s.Equal(userID, profile.ID)
		s.Equal(identity.BaseReputation, profile.Reputation)
		s.Equal(s.now, profile.JoinedAt)
		s.Equal(s.now, profile.LastActive)
		s.False(profile.Verified)
	})

	s.Run("emits a registration audit event", func() {
		events := s.events.ListByAction(ctx, audit.ActionUserRegistered)
		s.Require().Len(events, 1)
		s.Equal(userID.String(), events[0].Subject)
	})

	s.Run("duplicate registration conflicts", func() {
		_, err := s.service.Register(ctx, userID, "Amina", "NGA", "")
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("rejects unknown country format", func() {
		other := id.NewUserID()
		_, err := s.service.Register(testutil.Ctx(other, s.now), other, "Kofi", "gh", "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects empty display name", func() {
		other := id.NewUserID()
		_, err := s.service.Register(testutil.Ctx(other, s.now), other, "   ", "GHA", "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("normalizes lowercase country codes", func() {
		other := id.NewUserID()
		profile, err := s.service.Register(testutil.Ctx(other, s.now), other, "Kofi", "gha", "")
		s.Require().NoError(err)
		s.Equal(id.CountryCode("GHA"), profile.Country)
	})
}

func (s *IdentityServiceSuite) TestGetProfile() {
	userID := id.NewUserID()
	ctx := testutil.Ctx(userID, s.now)

	s.Run("unregistered user is not found", func() {
		_, err := s.service.GetProfile(ctx, userID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("returns registered profile", func() {
		_, err := s.service.Register(ctx, userID, "Amina", "NGA", "")
		s.Require().NoError(err)

		profile, err := s.service.GetProfile(ctx, userID)
		s.Require().NoError(err)
		s.Equal("Amina", profile.DisplayName)
	})
}

func (s *IdentityServiceSuite) TestMarkVerified() {
	userID := id.NewUserID()
	ctx := testutil.Ctx(userID, s.now)
	_, err := s.service.Register(ctx, userID, "Amina", "NGA", "")
	s.Require().NoError(err)

	s.Run("non-admin caller is forbidden", func() {
		_, err := s.service.MarkVerified(ctx, userID, userID)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("admin verifies a user", func() {
		adminCtx := testutil.Ctx(s.admin, s.now)
		profile, err := s.service.MarkVerified(adminCtx, s.admin, userID)
		s.Require().NoError(err)
		s.True(profile.Verified)

		events := s.events.ListByAction(adminCtx, audit.ActionUserVerified)
		s.Require().Len(events, 1)
		s.Equal(s.admin, events[0].Actor)
	})

	s.Run("verifying twice is idempotent", func() {
		adminCtx := testutil.Ctx(s.admin, s.now)
		profile, err := s.service.MarkVerified(adminCtx, s.admin, userID)
		s.Require().NoError(err)
		s.True(profile.Verified)
		s.Len(s.events.ListByAction(adminCtx, audit.ActionUserVerified), 1)
	})
}

func (s *IdentityServiceSuite) TestTouch() {
	userID := id.NewUserID()
	ctx := testutil.Ctx(userID, s.now)
	_, err := s.service.Register(ctx, userID, "Amina", "NGA", "")
	s.Require().NoError(err)

	s.Run("advances last active to the request clock", func() {
		later := s.now.Add(48 * time.Hour)
		s.Require().NoError(s.service.Touch(testutil.Ctx(userID, later), userID))

		profile, err := s.service.GetProfile(ctx, userID)
		s.Require().NoError(err)
		s.Equal(later, profile.LastActive)
	})

	s.Run("unregistered user is not found", func() {
		err := s.service.Touch(ctx, id.NewUserID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestRegisterStoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

	owner := id.NewUserID()
	svc := identity.New(store, rbac.New(owner))

	userID := id.NewUserID()
	_, err := svc.Register(testutil.Ctx(userID, time.Now()), userID, "Amina", "NGA", "")
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
