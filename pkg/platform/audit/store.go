package audit

import "context"

// Store is an append-only audit sink. Implementations must never mutate or
// reorder previously appended events.
type Store interface {
	Append(ctx context.Context, event Event) error
}
