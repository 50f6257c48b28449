// Package channel buffers audit events for a background drain worker.
// It sits between the publisher and a remote sink so emission never
// waits on the network.
package channel

import (
	"context"
	"fmt"

	"fides/pkg/platform/audit"
)

type Store struct {
	events chan audit.Event
}

// New creates a buffered store. Size bounds memory under a stalled drain.
func New(size int) *Store {
	if size <= 0 {
		size = 1024
	}
	return &Store{events: make(chan audit.Event, size)}
}

// Append enqueues the event. A full buffer drops it with an error rather
// than blocking the request path.
func (s *Store) Append(_ context.Context, event audit.Event) error {
	select {
	case s.events <- event:
		return nil
	default:
		return fmt.Errorf("audit buffer full, dropping %s", event.Action)
	}
}

// Events is the drain side, consumed by the audit worker.
func (s *Store) Events() <-chan audit.Event {
	return s.events
}
