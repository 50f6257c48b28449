package reputation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fides/internal/identity"
	"fides/internal/region"
	"fides/internal/vouch"
	id "fides/pkg/domain"
)

func TestCompute(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	countries := map[id.UserID]id.CountryCode{}
	resolver := func(userID id.UserID) (id.CountryCode, bool) {
		c, ok := countries[userID]
		return c, ok
	}
	newGiver := func(country string) id.UserID {
		g := id.NewUserID()
		countries[g] = id.CountryCode(country)
		return g
	}
	receiver := func(country string) identity.Profile {
		return identity.Profile{
			ID:         id.NewUserID(),
			Country:    id.CountryCode(country),
			LastActive: now,
		}
	}
	mkVouch := func(giver id.UserID, confidence int) vouch.Vouch {
		return vouch.Vouch{
			ID:         id.NewVouchID(),
			Giver:      giver,
			Confidence: id.Confidence(confidence),
			IssuedAt:   now,
			Valid:      true,
		}
	}

	tests := []struct {
		name     string
		receiver identity.Profile
		vouches  func(p identity.Profile) []vouch.Vouch
		trust    func(tr *region.Table)
		now      time.Time
		want     int
	}{
		{
			name:     "no vouches yields base score",
			receiver: receiver("NGA"),
			vouches:  func(identity.Profile) []vouch.Vouch { return nil },
			now:      now,
			want:     10,
		},
		{
			name:     "cross-region vouch at full confidence",
			receiver: receiver("KEN"),
			vouches: func(identity.Profile) []vouch.Vouch {
				return []vouch.Vouch{mkVouch(newGiver("NGA"), 5)}
			},
			now:  now,
			want: 18, // 10 + 5*2*80/100
		},
		{
			name:     "same-country vouch",
			receiver: receiver("NGA"),
			vouches: func(identity.Profile) []vouch.Vouch {
				return []vouch.Vouch{mkVouch(newGiver("NGA"), 3)}
			},
			now:  now,
			want: 16, // 10 + 3*2*100/100
		},
		{
			name:     "same-region vouch truncates",
			receiver: receiver("GHA"),
			vouches: func(identity.Profile) []vouch.Vouch {
				return []vouch.Vouch{mkVouch(newGiver("NGA"), 4)}
			},
			now:  now,
			want: 17, // 10 + trunc(4*2*90/100)
		},
		{
			name:     "invalid vouches contribute nothing",
			receiver: receiver("NGA"),
			vouches: func(identity.Profile) []vouch.Vouch {
				v := mkVouch(newGiver("NGA"), 5)
				v.Valid = false
				return []vouch.Vouch{v}
			},
			now:  now,
			want: 10,
		},
		{
			name:     "unknown giver country contributes nothing",
			receiver: receiver("NGA"),
			vouches: func(identity.Profile) []vouch.Vouch {
				return []vouch.Vouch{mkVouch(id.NewUserID(), 5)}
			},
			now:  now,
			want: 10,
		},
		{
			name:     "country trust multiplier scales contribution",
			receiver: receiver("KEN"),
			vouches: func(identity.Profile) []vouch.Vouch {
				return []vouch.Vouch{mkVouch(newGiver("NGA"), 5)}
			},
			trust: func(tr *region.Table) {
				require.NoError(t, tr.SetTrustMultiplier(id.CountryCode("NGA"), 50))
			},
			now:  now,
			want: 14, // 10 + 5*2*(80*50/100)/100
		},
		{
			name:     "zero trust multiplier nullifies a country",
			receiver: receiver("KEN"),
			vouches: func(identity.Profile) []vouch.Vouch {
				return []vouch.Vouch{mkVouch(newGiver("NGA"), 5)}
			},
			trust: func(tr *region.Table) {
				require.NoError(t, tr.SetTrustMultiplier(id.CountryCode("NGA"), 0))
			},
			now:  now,
			want: 10,
		},
		{
			name:     "two full months of inactivity decays two percent",
			receiver: receiver("KEN"),
			vouches: func(identity.Profile) []vouch.Vouch {
				var out []vouch.Vouch
				for range 5 {
					out = append(out, mkVouch(newGiver("NGA"), 5))
				}
				return out
			},
			now:  now.Add(65 * 24 * time.Hour),
			want: 49, // (10 + 5*8) * 98/100
		},
		{
			name:     "under one month does not decay",
			receiver: receiver("KEN"),
			vouches: func(identity.Profile) []vouch.Vouch {
				return []vouch.Vouch{mkVouch(newGiver("NGA"), 5)}
			},
			now:  now.Add(29 * 24 * time.Hour),
			want: 18,
		},
		{
			name:     "extreme inactivity floors at zero",
			receiver: receiver("KEN"),
			vouches: func(identity.Profile) []vouch.Vouch {
				return []vouch.Vouch{mkVouch(newGiver("NGA"), 5)}
			},
			now:  now.Add(101 * 30 * 24 * time.Hour),
			want: 0,
		},
		{
			name:     "score caps at the maximum",
			receiver: receiver("NGA"),
			vouches: func(identity.Profile) []vouch.Vouch {
				var out []vouch.Vouch
				for range 150 {
					out = append(out, mkVouch(newGiver("NGA"), 5))
				}
				return out
			},
			now:  now,
			want: MaxScore, // 10 + 150*10 clamped
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trust := region.NewTable()
			if tt.trust != nil {
				tt.trust(trust)
			}
			got := Compute(tt.receiver, tt.vouches(tt.receiver), resolver, trust, tt.now)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestComputeIsDeterministic(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	giver := id.NewUserID()
	resolver := func(id.UserID) (id.CountryCode, bool) { return id.CountryCode("NGA"), true }
	p := identity.Profile{ID: id.NewUserID(), Country: id.CountryCode("GHA"), LastActive: now}
	vs := []vouch.Vouch{{ID: id.NewVouchID(), Giver: giver, Confidence: 4, Valid: true}}
	trust := region.NewTable()

	first := Compute(p, vs, resolver, trust, now)
	for range 10 {
		require.Equal(t, first, Compute(p, vs, resolver, trust, now))
	}
}
