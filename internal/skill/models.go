package skill

import (
	"time"

	"fides/internal/region"
	id "fides/pkg/domain"
)

// DefaultWeight is the neutral weight assigned to skills that carry no
// explicit weighting.
const DefaultWeight = 100

// Skill is a catalog entry users can be vouched for.
type Skill struct {
	ID       id.SkillID `json:"id"`
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Weight   int        `json:"weight"`

	// RegionWeights overrides Weight for specific regions. Regions
	// without an entry use the base weight.
	RegionWeights map[region.Region]int `json:"region_weights,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// WeightIn returns the weight that applies in the given region.
func (s Skill) WeightIn(r region.Region) int {
	if w, ok := s.RegionWeights[r]; ok {
		return w
	}
	return s.Weight
}
