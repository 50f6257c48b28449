//go:build integration

package vouch_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"fides/internal/vouch"
	id "fides/pkg/domain"
	"fides/pkg/platform/sentinel"
	"fides/pkg/testutil/containers"
)

const vouchesSchema = `
CREATE TABLE vouches (
    id           UUID PRIMARY KEY,
    giver        UUID NOT NULL,
    receiver     UUID NOT NULL,
    skill_id     UUID NOT NULL,
    confidence   INT NOT NULL,
    comment      TEXT NOT NULL DEFAULT '',
    evidence_ref TEXT NOT NULL DEFAULT '',
    issued_at    TIMESTAMPTZ NOT NULL,
    valid        BOOLEAN NOT NULL,
    seq          BIGSERIAL
);
CREATE INDEX vouches_receiver_idx ON vouches (receiver, seq);
CREATE INDEX vouches_giver_idx ON vouches (giver, seq);`

type VouchPostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *vouch.PostgresStore
}

func TestVouchPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(VouchPostgresStoreSuite))
}

func (s *VouchPostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), vouchesSchema)
	s.store = vouch.NewPostgres(s.postgres.DB)
}

func (s *VouchPostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "vouches"))
}

func (s *VouchPostgresStoreSuite) newVouch(receiver id.UserID) vouch.Vouch {
	return vouch.Vouch{
		ID:         id.NewVouchID(),
		Giver:      id.NewUserID(),
		Receiver:   receiver,
		SkillID:    id.NewSkillID(),
		Confidence: id.Confidence(4),
		Comment:    "solid work on the irrigation project",
		IssuedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Valid:      true,
	}
}

func (s *VouchPostgresStoreSuite) TestAppendAndFind() {
	ctx := context.Background()
	v := s.newVouch(id.NewUserID())
	s.Require().NoError(s.store.Append(ctx, v))

	got, err := s.store.FindByID(ctx, v.ID)
	s.Require().NoError(err)
	s.Equal(v.ID, got.ID)
	s.Equal(v.Confidence, got.Confidence)
	s.Equal(v.Comment, got.Comment)
	s.True(got.Valid)
	s.True(v.IssuedAt.Equal(got.IssuedAt))
}

func (s *VouchPostgresStoreSuite) TestAppendDuplicateConflicts() {
	ctx := context.Background()
	v := s.newVouch(id.NewUserID())
	s.Require().NoError(s.store.Append(ctx, v))
	s.ErrorIs(s.store.Append(ctx, v), sentinel.ErrConflict)
}

func (s *VouchPostgresStoreSuite) TestSaveInvalidates() {
	ctx := context.Background()
	v := s.newVouch(id.NewUserID())
	s.Require().NoError(s.store.Append(ctx, v))

	v.Valid = false
	s.Require().NoError(s.store.Save(ctx, v))

	got, err := s.store.FindByID(ctx, v.ID)
	s.Require().NoError(err)
	s.False(got.Valid)
}

func (s *VouchPostgresStoreSuite) TestSaveMissingNotFound() {
	s.ErrorIs(s.store.Save(context.Background(), s.newVouch(id.NewUserID())), sentinel.ErrNotFound)
}

func (s *VouchPostgresStoreSuite) TestListByReceiverPreservesOrder() {
	ctx := context.Background()
	receiver := id.NewUserID()

	var want []id.VouchID
	for range 5 {
		v := s.newVouch(receiver)
		s.Require().NoError(s.store.Append(ctx, v))
		want = append(want, v.ID)
	}
	// A vouch for somebody else must not leak into the listing.
	s.Require().NoError(s.store.Append(ctx, s.newVouch(id.NewUserID())))

	got, err := s.store.ListByReceiver(ctx, receiver)
	s.Require().NoError(err)
	s.Require().Len(got, 5)
	for i, v := range got {
		s.Equal(want[i], v.ID)
	}
}

func (s *VouchPostgresStoreSuite) TestListByGiver() {
	ctx := context.Background()
	giver := id.NewUserID()

	first := s.newVouch(id.NewUserID())
	first.Giver = giver
	second := s.newVouch(id.NewUserID())
	second.Giver = giver
	s.Require().NoError(s.store.Append(ctx, first))
	s.Require().NoError(s.store.Append(ctx, second))

	got, err := s.store.ListByGiver(ctx, giver)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(first.ID, got[0].ID)
	s.Equal(second.ID, got[1].ID)
}
