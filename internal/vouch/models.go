package vouch

import (
	"time"

	id "fides/pkg/domain"
)

// Vouch is one attestation in the ledger: the giver asserts the receiver
// holds a skill, at a stated confidence. Vouches are append-only; an
// invalidated vouch stays in the ledger with Valid set to false so the
// record of its issuance survives.
type Vouch struct {
	ID          id.VouchID    `json:"id"`
	Giver       id.UserID     `json:"giver"`
	Receiver    id.UserID     `json:"receiver"`
	SkillID     id.SkillID    `json:"skill_id"`
	Confidence  id.Confidence `json:"confidence"`
	Comment     string        `json:"comment,omitempty"`
	EvidenceRef string        `json:"evidence_ref,omitempty"`
	IssuedAt    time.Time     `json:"issued_at"`
	Valid       bool          `json:"valid"`
}
