package vouch_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fides/internal/identity"
	"fides/internal/rbac"
	"fides/internal/region"
	"fides/internal/reputation"
	"fides/internal/skill"
	"fides/internal/vouch"
	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
	"fides/pkg/platform/audit"
	"fides/pkg/platform/audit/publisher"
	auditmem "fides/pkg/platform/audit/store/memory"
	"fides/pkg/testutil"
)

type recordingProjector struct {
	projected []vouch.Vouch
	fail      bool
}

func (p *recordingProjector) Project(_ context.Context, v vouch.Vouch) error {
	if p.fail {
		return errors.New("graph unavailable")
	}
	p.projected = append(p.projected, v)
	return nil
}

type spyTransactor struct {
	runs      int
	rollbacks int
}

func (t *spyTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.runs++
	if err := fn(ctx); err != nil {
		t.rollbacks++
		return err
	}
	return nil
}

type failingProfiles struct {
	*identity.InMemoryStore
	failSaves bool
}

func (f *failingProfiles) Save(ctx context.Context, profile identity.Profile) error {
	if f.failSaves {
		return errors.New("disk full")
	}
	return f.InMemoryStore.Save(ctx, profile)
}

type VouchServiceSuite struct {
	suite.Suite
	profiles  *identity.InMemoryStore
	skills    *skill.InMemoryStore
	ledger    *vouch.InMemoryStore
	events    *auditmem.Store
	projector *recordingProjector
	service   *vouch.Service

	admin   id.UserID
	skillID id.SkillID
	now     time.Time
}

func TestVouchServiceSuite(t *testing.T) {
	suite.Run(t, new(VouchServiceSuite))
}

func (s *VouchServiceSuite) SetupTest() {
	s.admin = id.NewUserID()
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.profiles = identity.NewInMemoryStore()
	s.skills = skill.NewInMemoryStore()
	s.ledger = vouch.NewInMemoryStore()
	s.events = auditmem.New()
	s.projector = &recordingProjector{}

	s.skillID = id.NewSkillID()
	s.Require().NoError(s.skills.Create(context.Background(), skill.Skill{
		ID: s.skillID, Name: "Carpentry", Weight: skill.DefaultWeight,
	}))

	roles := rbac.New(s.admin)
	scorer := reputation.New(s.profiles, s.ledger, region.NewTable(), roles)
	s.service = vouch.New(s.ledger, s.profiles, s.skills, scorer, roles,
		vouch.WithAuditPublisher(publisher.New(s.events)),
		vouch.WithProjector(s.projector))
}

func (s *VouchServiceSuite) register(country string) id.UserID {
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

func (s *VouchServiceSuite) TestGiveVouch() {
	giver := s.register("NGA")
	receiver := s.register("KEN")
	ctx := testutil.Ctx(giver, s.now)

	s.Run("self-vouch is rejected", func() {
		_, err := s.service.GiveVouch(ctx, giver, vouch.GiveVouchRequest{
			Receiver: giver, SkillID: s.skillID, Confidence: 3,
		})
		s.True(dErrors.Is(err, vouch.ErrSelfVouch))
	})

	s.Run("confidence outside 1..5 is rejected", func() {
		_, err := s.service.GiveVouch(ctx, giver, vouch.GiveVouchRequest{
			Receiver: receiver, SkillID: s.skillID, Confidence: 6,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unregistered receiver is not found", func() {
		_, err := s.service.GiveVouch(ctx, giver, vouch.GiveVouchRequest{
			Receiver: id.NewUserID(), SkillID: s.skillID, Confidence: 3,
		})
		s.True(dErrors.Is(err, vouch.ErrReceiverNotRegistered))
	})

	s.Run("unknown skill is not found", func() {
		_, err := s.service.GiveVouch(ctx, giver, vouch.GiveVouchRequest{
			Receiver: receiver, SkillID: id.NewSkillID(), Confidence: 3,
		})
		s.True(dErrors.Is(err, vouch.ErrSkillNotFound))
	})

	s.Run("issues a vouch and recomputes the receiver score", func() {
		v, err := s.service.GiveVouch(ctx, giver, vouch.GiveVouchRequest{
			Receiver: receiver, SkillID: s.skillID, Confidence: 5, Comment: "built my roof",
		})
		s.Require().NoError(err)
		s.True(v.Valid)
		s.Equal(s.now, v.IssuedAt)

		profile, err := s.profiles.FindByID(ctx, receiver)
		s.Require().NoError(err)
		s.Equal(18, profile.Reputation)
		s.True(profile.HasSkill(s.skillID))
		s.Equal(s.now, profile.LastActive)
	})

	s.Run("touches the giver activity", func() {
		profile, err := s.profiles.FindByID(ctx, giver)
		s.Require().NoError(err)
		s.Equal(s.now, profile.LastActive)
	})

	s.Run("projects the vouch into the graph", func() {
		s.Require().Len(s.projector.projected, 1)
		s.Equal(giver, s.projector.projected[0].Giver)
	})

	s.Run("emits an issuance audit event", func() {
		events := s.events.ListByAction(ctx, audit.ActionVouchIssued)
		s.Require().Len(events, 1)
		s.Equal(giver, events[0].Actor)
	})

	s.Run("repeat vouches from the same giver stack", func() {
		_, err := s.service.GiveVouch(ctx, giver, vouch.GiveVouchRequest{
			Receiver: receiver, SkillID: s.skillID, Confidence: 5,
		})
		s.Require().NoError(err)

		profile, err := s.profiles.FindByID(ctx, receiver)
		s.Require().NoError(err)
		s.Equal(26, profile.Reputation)
	})

	s.Run("graph failure does not fail the issuance", func() {
		s.projector.fail = true
		_, err := s.service.GiveVouch(ctx, giver, vouch.GiveVouchRequest{
			Receiver: receiver, SkillID: s.skillID, Confidence: 1,
		})
		s.Require().NoError(err)
	})
}

func (s *VouchServiceSuite) TestInvalidateVouch() {
	giver := s.register("NGA")
	receiver := s.register("KEN")
	ctx := testutil.Ctx(giver, s.now)

	v, err := s.service.GiveVouch(ctx, giver, vouch.GiveVouchRequest{
		Receiver: receiver, SkillID: s.skillID, Confidence: 5,
	})
	s.Require().NoError(err)

	s.Run("plain user cannot invalidate", func() {
		_, err := s.service.InvalidateVouch(ctx, giver, v.ID, "fraud")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	s.Run("unknown vouch is not found", func() {
		adminCtx := testutil.Ctx(s.admin, s.now)
		_, err := s.service.InvalidateVouch(adminCtx, s.admin, id.NewVouchID(), "fraud")
		s.True(dErrors.Is(err, vouch.ErrVouchNotFound))
	})

	s.Run("admin invalidation reverses the score", func() {
		adminCtx := testutil.Ctx(s.admin, s.now)
		got, err := s.service.InvalidateVouch(adminCtx, s.admin, v.ID, "fraud")
		s.Require().NoError(err)
		s.False(got.Valid)

		profile, err := s.profiles.FindByID(ctx, receiver)
		s.Require().NoError(err)
		s.Equal(identity.BaseReputation, profile.Reputation)

		events := s.events.ListByAction(ctx, audit.ActionVouchInvalidated)
		s.Require().Len(events, 1)
		s.Equal("fraud", events[0].Reason)
	})

	s.Run("invalidating twice is a no-op", func() {
		adminCtx := testutil.Ctx(s.admin, s.now)
		got, err := s.service.InvalidateVouch(adminCtx, s.admin, v.ID, "fraud")
		s.Require().NoError(err)
		s.False(got.Valid)
		s.Len(s.events.ListByAction(ctx, audit.ActionVouchInvalidated), 1)
	})

	s.Run("validator may invalidate", func() {
		adminCtx := testutil.Ctx(s.admin, s.now)
		validator := s.register("GHA")
		roles := rbac.New(s.admin)
		s.Require().NoError(roles.Grant(adminCtx, s.admin, rbac.RoleValidator, validator))

		v2, err := s.service.GiveVouch(ctx, giver, vouch.GiveVouchRequest{
			Receiver: receiver, SkillID: s.skillID, Confidence: 2,
		})
		s.Require().NoError(err)

		scorer := reputation.New(s.profiles, s.ledger, region.NewTable(), roles)
		svc := vouch.New(s.ledger, s.profiles, s.skills, scorer, roles)
		got, err := svc.InvalidateVouch(testutil.Ctx(validator, s.now), validator, v2.ID, "dup")
		s.Require().NoError(err)
		s.False(got.Valid)
	})
}

func (s *VouchServiceSuite) TestListByReceiver() {
	giver := s.register("NGA")
	receiver := s.register("KEN")
	ctx := testutil.Ctx(giver, s.now)

	s.Run("unregistered user is not found", func() {
		_, err := s.service.ListByReceiver(ctx, id.NewUserID())
		s.True(dErrors.Is(err, vouch.ErrUserNotRegistered))
	})

	s.Run("returns vouches in receipt order", func() {
		for confidence := 1; confidence <= 3; confidence++ {
			_, err := s.service.GiveVouch(ctx, giver, vouch.GiveVouchRequest{
				Receiver: receiver, SkillID: s.skillID, Confidence: confidence,
			})
			s.Require().NoError(err)
		}

		vouches, err := s.service.ListByReceiver(ctx, receiver)
		s.Require().NoError(err)
		s.Require().Len(vouches, 3)
		for i, v := range vouches {
			s.Equal(id.Confidence(i+1), v.Confidence)
		}
	})

	s.Run("the giver's given list mirrors the issues", func() {
		given, err := s.service.ListByGiver(ctx, giver)
		s.Require().NoError(err)
		s.Require().Len(given, 3)
		for _, v := range given {
			s.Equal(giver, v.Giver)
		}
	})

	s.Run("given list for an unregistered user is not found", func() {
		_, err := s.service.ListByGiver(ctx, id.NewUserID())
		s.True(dErrors.Is(err, vouch.ErrUserNotRegistered))
	})
}

func (s *VouchServiceSuite) TestGet() {
	giver := s.register("NGA")
	receiver := s.register("KEN")
	ctx := testutil.Ctx(giver, s.now)

	v, err := s.service.GiveVouch(ctx, giver, vouch.GiveVouchRequest{
		Receiver: receiver, SkillID: s.skillID, Confidence: 4, Comment: "fixed the well pump",
	})
	s.Require().NoError(err)

	s.Run("returns the vouch by id", func() {
		got, err := s.service.Get(ctx, v.ID)
		s.Require().NoError(err)
		s.Equal(v.ID, got.ID)
		s.Equal(giver, got.Giver)
		s.Equal("fixed the well pump", got.Comment)
	})

	s.Run("unknown vouch is not found", func() {
		_, err := s.service.Get(ctx, id.NewVouchID())
		s.True(dErrors.Is(err, vouch.ErrVouchNotFound))
	})
}

func (s *VouchServiceSuite) TestGiveVouchTransaction() {
	giver := s.register("NGA")
	receiver := s.register("KEN")
	ctx := testutil.Ctx(giver, s.now)

	profiles := &failingProfiles{InMemoryStore: s.profiles}
	txn := &spyTransactor{}
	roles := rbac.New(s.admin)
	scorer := reputation.New(profiles, s.ledger, region.NewTable(), roles)
	svc := vouch.New(s.ledger, profiles, s.skills, scorer, roles,
		vouch.WithTransactor(txn))

	s.Run("the write sequence runs through a single transaction", func() {
		_, err := svc.GiveVouch(ctx, giver, vouch.GiveVouchRequest{
			Receiver: receiver, SkillID: s.skillID, Confidence: 5,
		})
		s.Require().NoError(err)
		s.Equal(1, txn.runs)
		s.Zero(txn.rollbacks)
	})

	s.Run("a failed write rolls the whole sequence back", func() {
		profiles.failSaves = true
		_, err := svc.GiveVouch(ctx, giver, vouch.GiveVouchRequest{
			Receiver: receiver, SkillID: s.skillID, Confidence: 2,
		})
		s.Require().Error(err)
		s.Equal(2, txn.runs)
		s.Equal(1, txn.rollbacks)
	})
}
