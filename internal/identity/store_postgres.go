package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "fides/pkg/domain"
	"fides/pkg/platform/sentinel"
	txcontext "fides/pkg/platform/tx"
)

// PostgresStore persists profiles in PostgreSQL for durable deployments.
//
// Schema:
//
//	CREATE TABLE profiles (
//	    id           UUID PRIMARY KEY,
//	    display_name TEXT NOT NULL,
//	    country      CHAR(3) NOT NULL,
//	    evidence_ref TEXT NOT NULL DEFAULT '',
//	    joined_at    TIMESTAMPTZ NOT NULL,
//	    last_active  TIMESTAMPTZ NOT NULL,
//	    reputation   INT NOT NULL,
//	    verified     BOOLEAN NOT NULL DEFAULT FALSE,
//	    skills       UUID[] NOT NULL DEFAULT '{}'
//	);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, profile Profile) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO profiles (id, display_name, country, evidence_ref, joined_at, last_active, reputation, verified, skills)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(profile.ID), profile.DisplayName, profile.Country.String(), profile.EvidenceRef,
		profile.JoinedAt, profile.LastActive, profile.Reputation, profile.Verified,
		pq.Array(skillUUIDs(profile.Skills)),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, profile Profile) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE profiles
		SET display_name = $2, country = $3, evidence_ref = $4, joined_at = $5,
		    last_active = $6, reputation = $7, verified = $8, skills = $9
		WHERE id = $1`,
		uuid.UUID(profile.ID), profile.DisplayName, profile.Country.String(), profile.EvidenceRef,
		profile.JoinedAt, profile.LastActive, profile.Reputation, profile.Verified,
		pq.Array(skillUUIDs(profile.Skills)),
	)
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, userID id.UserID) (Profile, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	row := exec.QueryRowContext(ctx, `
		SELECT id, display_name, country, evidence_ref, joined_at, last_active, reputation, verified, skills
		FROM profiles WHERE id = $1`,
		uuid.UUID(userID),
	)

	var (
		p       Profile
		rawID   uuid.UUID
		country string
		skills  []uuid.UUID
	)
	err := row.Scan(&rawID, &p.DisplayName, &country, &p.EvidenceRef,
		&p.JoinedAt, &p.LastActive, &p.Reputation, &p.Verified, pq.Array(&skills))
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("find profile: %w", err)
	}

	p.ID = id.UserID(rawID)
	p.Country = id.CountryCode(country)
	for _, s := range skills {
		p.Skills = append(p.Skills, id.SkillID(s))
	}
	return p, nil
}

func skillUUIDs(skills []id.SkillID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(skills))
	for _, s := range skills {
		out = append(out, uuid.UUID(s))
	}
	return out
}
