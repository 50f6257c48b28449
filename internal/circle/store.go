package circle

import (
	"context"

	id "fides/pkg/domain"
)

// Store persists circles and their member sets. AddMember returns
// sentinel.ErrConflict when the user is already a member; RemoveMember
// returns sentinel.ErrNotFound when they are not.
type Store interface {
	Create(ctx context.Context, c Circle) error
	FindByID(ctx context.Context, circleID id.CircleID) (Circle, error)
	List(ctx context.Context) ([]Circle, error)
	AddMember(ctx context.Context, circleID id.CircleID, userID id.UserID) error
	RemoveMember(ctx context.Context, circleID id.CircleID, userID id.UserID) error
	IsMember(ctx context.Context, circleID id.CircleID, userID id.UserID) (bool, error)
	Members(ctx context.Context, circleID id.CircleID) ([]id.UserID, error)
}
