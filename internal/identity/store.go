package identity

import (
	"context"

	id "fides/pkg/domain"
)

// Store persists profiles. Implementations return sentinel.ErrNotFound for
// missing identities and sentinel.ErrConflict when Create would overwrite.
//
//go:generate mockgen -source=store.go -destination=mocks/mocks.go -package=mocks
type Store interface {
	// Create inserts a new profile; fails on an existing identity key.
	Create(ctx context.Context, profile Profile) error
	// Save overwrites an existing profile.
	Save(ctx context.Context, profile Profile) error
	// FindByID returns the profile for an identity key.
	FindByID(ctx context.Context, userID id.UserID) (Profile, error)
}
