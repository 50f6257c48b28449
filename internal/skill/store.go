package skill

import (
	"context"

	id "fides/pkg/domain"
)

// Store persists the skill catalog. Implementations return
// sentinel.ErrNotFound for unknown skills and sentinel.ErrConflict on
// duplicate names.
type Store interface {
	Create(ctx context.Context, s Skill) error
	FindByID(ctx context.Context, skillID id.SkillID) (Skill, error)
	List(ctx context.Context) ([]Skill, error)
}
