package vouch

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

// PostgresStore persists the ledger in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE vouches (
//	    id           UUID PRIMARY KEY,
//	    giver        UUID NOT NULL,
//	    receiver     UUID NOT NULL,
//	    skill_id     UUID NOT NULL,
//	    confidence   INT NOT NULL,
//	    comment      TEXT NOT NULL DEFAULT '',
//	    evidence_ref TEXT NOT NULL DEFAULT '',
//	    issued_at    TIMESTAMPTZ NOT NULL,
//	    valid        BOOLEAN NOT NULL,
//	    seq          BIGSERIAL
//	);
//	CREATE INDEX vouches_receiver_idx ON vouches (receiver, seq);
//	CREATE INDEX vouches_giver_idx ON vouches (giver, seq);
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, v Vouch) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	_, err := exec.ExecContext(ctx, `
		INSERT INTO vouches (id, giver, receiver, skill_id, confidence, comment, evidence_ref, issued_at, valid)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.UUID(v.ID), uuid.UUID(v.Giver), uuid.UUID(v.Receiver), uuid.UUID(v.SkillID),
		int(v.Confidence), v.Comment, v.EvidenceRef, v.IssuedAt, v.Valid,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("append vouch: %w", err)
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, v Vouch) error {
	exec := txcontext.ExecutorFor(ctx, s.db)
	res, err := exec.ExecContext(ctx, `
		UPDATE vouches SET confidence = $2, comment = $3, evidence_ref = $4, valid = $5
		WHERE id = $1`,
		uuid.UUID(v.ID), int(v.Confidence), v.Comment, v.EvidenceRef, v.Valid,
	)
	if err != nil {
		return fmt.Errorf("save vouch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save vouch: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, vouchID id.VouchID) (Vouch, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	row := exec.QueryRowContext(ctx, `
		SELECT id, giver, receiver, skill_id, confidence, comment, evidence_ref, issued_at, valid
		FROM vouches WHERE id = $1`,
		uuid.UUID(vouchID),
	)
	v, err := scanVouch(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Vouch{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Vouch{}, fmt.Errorf("find vouch: %w", err)
	}
	return v, nil
}

func (s *PostgresStore) ListByReceiver(ctx context.Context, receiver id.UserID) ([]Vouch, error) {
	return s.list(ctx, "receiver", receiver)
}

func (s *PostgresStore) ListByGiver(ctx context.Context, giver id.UserID) ([]Vouch, error) {
	return s.list(ctx, "giver", giver)
}

func (s *PostgresStore) list(ctx context.Context, column string, userID id.UserID) ([]Vouch, error) {
	exec := txcontext.ExecutorFor(ctx, s.db)
	rows, err := exec.QueryContext(ctx, `
		SELECT id, giver, receiver, skill_id, confidence, comment, evidence_ref, issued_at, valid
		FROM vouches WHERE `+column+` = $1 ORDER BY seq`,
		uuid.UUID(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list vouches: %w", err)
	}
	defer rows.Close()

	var out []Vouch
	for rows.Next() {
		v, err := scanVouch(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list vouches: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vouches: %w", err)
	}
	return out, nil
}

func scanVouch(scan func(dest ...any) error) (Vouch, error) {
	var (
		v          Vouch
		vouchID    uuid.UUID
		giver      uuid.UUID
		receiver   uuid.UUID
		skillID    uuid.UUID
		confidence int
	)
	err := scan(&vouchID, &giver, &receiver, &skillID, &confidence,
		&v.Comment, &v.EvidenceRef, &v.IssuedAt, &v.Valid)
	if err != nil {
		return Vouch{}, err
	}
	v.ID = id.VouchID(vouchID)
	v.Giver = id.UserID(giver)
	v.Receiver = id.UserID(receiver)
	v.SkillID = id.SkillID(skillID)
	v.Confidence = id.Confidence(confidence)
	return v, nil
}
