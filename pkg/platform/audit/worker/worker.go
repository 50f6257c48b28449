// Package worker drains buffered audit events into a sink off the request
// path. Used when the sink is remote (Kafka) and emission latency matters.
package worker

import (
	"context"
	"log/slog"

	audit "fides/pkg/platform/audit"
)

type Worker struct {
	store  audit.Store
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func New(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{store: store, inbox: inbox, logger: logger}
}

// Run consumes events until ctx is cancelled. Append failures are logged and
// the event dropped; the worker keeps draining so a flaky sink cannot back
// the channel up into the engine.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.store.Append(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "audit drain failed",
					"action", event.Action,
					"subject", event.Subject,
					"error", err,
				)
			}
		}
	}
}
