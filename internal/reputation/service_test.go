package reputation_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fides/internal/identity"
	"fides/internal/rbac"
	"fides/internal/region"
	"fides/internal/reputation"
	"fides/internal/vouch"
	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
	"fides/pkg/platform/audit"
	"fides/pkg/platform/audit/publisher"
	auditmem "fides/pkg/platform/audit/store/memory"
	"fides/pkg/testutil"
)

type ReputationServiceSuite struct {
	suite.Suite
	profiles *identity.InMemoryStore
	vouches  *vouch.InMemoryStore
	trust    *region.Table
	events   *auditmem.Store
	service  *reputation.Service

	admin id.UserID
	now   time.Time
}

func TestReputationServiceSuite(t *testing.T) {
	suite.Run(t, new(ReputationServiceSuite))
}

func (s *ReputationServiceSuite) SetupTest() {
	s.admin = id.NewUserID()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.profiles = identity.NewInMemoryStore()
	s.vouches = vouch.NewInMemoryStore()
	s.trust = region.NewTable()
	s.events = auditmem.New()
	s.service = reputation.New(s.profiles, s.vouches, s.trust, rbac.New(s.admin),
		reputation.WithAuditPublisher(publisher.New(s.events)))
}

func (s *ReputationServiceSuite) register(country string) id.UserID {
	userID := id.NewUserID()
	s.Require().NoError(s.profiles.Create(context.Background(), identity.Profile{
		ID:         userID,
		Country:    id.CountryCode(country),
		JoinedAt:   s.now,
		LastActive: s.now,
		Reputation: identity.BaseReputation,
	}))
	return userID
}

func (s *ReputationServiceSuite) vouchFor(giver, receiver id.UserID, confidence int) {
	s.Require().NoError(s.vouches.Append(context.Background(), vouch.Vouch{
		ID:         id.NewVouchID(),
		Giver:      giver,
		Receiver:   receiver,
		Confidence: id.Confidence(confidence),
		IssuedAt:   s.now,
		Valid:      true,
	}))
}

func (s *ReputationServiceSuite) TestRecompute() {
	ctx := testutil.Ctx(s.admin, s.now)

	s.Run("unregistered user is not found", func() {
		_, err := s.service.Recompute(ctx, id.NewUserID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("persists the derived score on the profile", func() {
		giver := s.register("NGA")
		receiver := s.register("KEN")
		s.vouchFor(giver, receiver, 5)

		score, err := s.service.Recompute(ctx, receiver)
		s.Require().NoError(err)
		s.Equal(18, score)

		profile, err := s.profiles.FindByID(ctx, receiver)
		s.Require().NoError(err)
		s.Equal(18, profile.Reputation)
	})

	s.Run("emits an audit event when the score changes", func() {
		events := s.events.ListByAction(ctx, audit.ActionReputationUpdated)
		s.Require().Len(events, 1)
		s.Equal("10 -> 18", events[0].Reason)
	})

	s.Run("recompute with no change emits nothing", func() {
		giver := s.register("NGA")
		receiver := s.register("NGA")
		s.vouchFor(giver, receiver, 3)

		before := len(s.events.ListByAction(ctx, audit.ActionReputationUpdated))
		_, err := s.service.Recompute(ctx, receiver)
		s.Require().NoError(err)
		_, err = s.service.Recompute(ctx, receiver)
		s.Require().NoError(err)
		s.Len(s.events.ListByAction(ctx, audit.ActionReputationUpdated), before+1)
	})
}

func (s *ReputationServiceSuite) TestScore() {
	s.Run("reads through without persisting", func() {
		giver := s.register("NGA")
		receiver := s.register("GHA")
		s.vouchFor(giver, receiver, 4)

		ctx := testutil.Ctx(receiver, s.now)
		score, err := s.service.Score(ctx, receiver)
		s.Require().NoError(err)
		s.Equal(17, score)

		profile, err := s.profiles.FindByID(ctx, receiver)
		s.Require().NoError(err)
		s.Equal(identity.BaseReputation, profile.Reputation)
	})

	s.Run("decay tracks the request clock", func() {
		giver := s.register("NGA")
		receiver := s.register("KEN")
		s.vouchFor(giver, receiver, 5)

		later := testutil.Ctx(receiver, s.now.Add(65*24*time.Hour))
		score, err := s.service.Score(later, receiver)
		s.Require().NoError(err)
		s.Equal(17, score) // 18 * 98 / 100
	})
}

func (s *ReputationServiceSuite) TestSetCountryMultiplier() {
	adminCtx := testutil.Ctx(s.admin, s.now)

	s.Run("non-admin caller is forbidden", func() {
		user := id.NewUserID()
		err := s.service.SetCountryMultiplier(testutil.Ctx(user, s.now), user, "NGA", 50)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("rejects out-of-range multiplier", func() {
		err := s.service.SetCountryMultiplier(adminCtx, s.admin, "NGA", 1001)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("multiplier shapes subsequent recomputes", func() {
		s.Require().NoError(s.service.SetCountryMultiplier(adminCtx, s.admin, "NGA", 50))

		giver := s.register("NGA")
		receiver := s.register("KEN")
		s.vouchFor(giver, receiver, 5)

		score, err := s.service.Recompute(adminCtx, receiver)
		s.Require().NoError(err)
		s.Equal(14, score)

		events := s.events.ListByAction(adminCtx, audit.ActionCountryMultiplierSet)
		s.Require().Len(events, 1)
		s.Equal("NGA", events[0].Subject)
	})
}
