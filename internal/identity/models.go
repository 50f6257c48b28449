// Package identity owns user profile records, the leaf dependency for the
// rest of the engine.
package identity

import (
	"time"

	id "fides/pkg/domain"
)

// Profile is a registered identity. The identity key is unique and
// immutable; profiles are never deleted. Reputation and LastActiveAt are the
// only fields routinely mutated after registration, plus Verified and the
// skill set.
type Profile struct {
	ID          id.UserID      `json:"id"`
	DisplayName string         `json:"display_name"`
	Country     id.CountryCode `json:"country"`
	EvidenceRef string         `json:"evidence_ref,omitempty"`
	JoinedAt    time.Time      `json:"joined_at"`
	LastActive  time.Time      `json:"last_active"`
	// Reputation is the current computed score, always within [0,1000].
	Reputation int  `json:"reputation"`
	Verified   bool `json:"verified"`
	// Skills are the skill ids this identity has received valid vouches for.
	Skills []id.SkillID `json:"skills,omitempty"`
}

// BaseReputation is the score every profile starts with.
const BaseReputation = 10

// HasSkill reports whether the profile already holds the skill.
func (p Profile) HasSkill(skillID id.SkillID) bool {
	for _, s := range p.Skills {
		if s == skillID {
			return true
		}
	}
	return false
}
