// Package region holds the static country-to-region mapping and the
// admin-tunable per-country trust multipliers that weight cross-border
// vouches.
package region

import (
	"sync"

	id "fides/pkg/domain"
	dErrors "fides/pkg/domain-errors"
)

// Region tags a predefined grouping of countries used for multiplier tiering.
type Region string

const (
	WestAfrica     Region = "west_africa"
	EastAfrica     Region = "east_africa"
	SouthernAfrica Region = "southern_africa"
	NorthAfrica    Region = "north_africa"
)

// regionByCountry is built once at package init from the fixed region sets.
// Countries outside every set have no region: their vouches always take the
// cross-region tier.
var regionByCountry = map[id.CountryCode]Region{}

var regionSets = map[Region][]id.CountryCode{
	WestAfrica: {
		"NGA", "GHA", "SEN", "CIV", "MLI", "BFA", "BEN", "TGO",
		"GIN", "NER", "SLE", "LBR", "GMB", "GNB", "CPV",
	},
	EastAfrica: {
		"KEN", "TZA", "UGA", "RWA", "BDI", "ETH", "SOM", "SSD", "DJI", "ERI",
	},
	SouthernAfrica: {
		"ZAF", "BWA", "NAM", "ZWE", "ZMB", "MOZ", "MWI", "LSO", "SWZ", "AGO",
	},
	NorthAfrica: {
		"EGY", "MAR", "TUN", "DZA", "LBY", "SDN", "MRT",
	},
}

func init() {
	for region, countries := range regionSets {
		for _, c := range countries {
			regionByCountry[c] = region
		}
	}
}

// Known reports whether r is one of the predefined region tags.
func Known(r Region) bool {
	_, ok := regionSets[r]
	return ok
}

// RegionOf returns the region tag for a country, if it belongs to one.
func RegionOf(c id.CountryCode) (Region, bool) {
	r, ok := regionByCountry[c]
	return r, ok
}

// Cross-border multiplier tiers, in percent.
const (
	SameCountryMultiplier = 100
	SameRegionMultiplier  = 90
	CrossRegionMultiplier = 80
)

// CrossBorderMultiplier returns the percentage weight applied to a vouch
// from giver to receiver based on their country relationship.
func CrossBorderMultiplier(giver, receiver id.CountryCode) int {
	if giver == receiver {
		return SameCountryMultiplier
	}
	gr, gok := RegionOf(giver)
	rr, rok := RegionOf(receiver)
	if gok && rok && gr == rr {
		return SameRegionMultiplier
	}
	return CrossRegionMultiplier
}

// DefaultTrustMultiplier is the per-country trust weight applied until an
// admin overrides it.
const DefaultTrustMultiplier = 100

// Table carries the mutable per-country trust multipliers. The region sets
// above are static; only multipliers change at runtime.
type Table struct {
	mu          sync.RWMutex
	multipliers map[id.CountryCode]int
}

func NewTable() *Table {
	return &Table{multipliers: make(map[id.CountryCode]int)}
}

// TrustMultiplier returns the trust weight for a country, defaulting to 100.
func (t *Table) TrustMultiplier(c id.CountryCode) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if m, ok := t.multipliers[c]; ok {
		return m
	}
	return DefaultTrustMultiplier
}

// SetTrustMultiplier overrides the trust weight for a country.
//
// Errors: CodeValidation when pct is outside [0,1000]. A zero multiplier is
// allowed and nullifies vouches from that country.
func (t *Table) SetTrustMultiplier(c id.CountryCode, pct int) error {
	if pct < 0 || pct > 1000 {
		return dErrors.New(dErrors.CodeValidation, "trust multiplier must be between 0 and 1000")
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.multipliers[c] = pct
	return nil
}
