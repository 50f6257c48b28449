package reputation

import (
	"time"

	"fides/internal/identity"
	"fides/internal/region"
	"fides/internal/vouch"
	id "fides/pkg/domain"
)

const (
	// MaxScore caps a score after all contributions.
	MaxScore = 1000
	// MinScore floors a score after decay.
	MinScore = 0

	// confidenceFactor converts a 1..5 confidence into score points
	// before geographic weighting.
	confidenceFactor = 2

	// decayMonth is the fixed period treated as one month of inactivity.
	decayMonth = 30 * 24 * time.Hour
)

// CountryResolver maps a user to their registered country. Unknown users
// report ok=false and their vouches contribute nothing.
type CountryResolver func(userID id.UserID) (id.CountryCode, bool)

// Compute derives a reputation score from the ledger. It is a pure
// function of its inputs: same profile, vouches, trust table, and clock
// always yield the same score.
//
// Each valid vouch contributes confidence*2 points, weighted by the
// giver-to-receiver cross-border multiplier and the giver country's trust
// multiplier. Inactivity then decays the total by 1% per full 30-day
// period since the receiver was last active.
func Compute(receiver identity.Profile, vouches []vouch.Vouch, giverCountry CountryResolver, trust *region.Table, now time.Time) int {
	score := identity.BaseReputation

	for _, v := range vouches {
		if !v.Valid {
			continue
		}
		country, ok := giverCountry(v.Giver)
		if !ok {
			continue
		}
		crossBorder := region.CrossBorderMultiplier(country, receiver.Country)
		weight := crossBorder * trust.TrustMultiplier(country) / 100
		score += int(v.Confidence) * confidenceFactor * weight / 100
	}

	if months := int(now.Sub(receiver.LastActive) / decayMonth); months > 0 {
		if months >= 100 {
			score = 0
		} else {
			score = score * (100 - months) / 100
		}
	}

	if score > MaxScore {
		return MaxScore
	}
	if score < MinScore {
		return MinScore
	}
	return score
}
