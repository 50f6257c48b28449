package vouch

import (
	"context"

	id "fides/pkg/domain"
)

// Store persists the vouch ledger. Both listings return vouches in
// receipt order; the reputation calculator depends on that for
// deterministic scoring. Implementations return sentinel.ErrNotFound
// for unknown vouch ids.
type Store interface {
	Append(ctx context.Context, v Vouch) error
	Save(ctx context.Context, v Vouch) error
	FindByID(ctx context.Context, vouchID id.VouchID) (Vouch, error)
	ListByReceiver(ctx context.Context, receiver id.UserID) ([]Vouch, error)
	ListByGiver(ctx context.Context, giver id.UserID) ([]Vouch, error)
}
