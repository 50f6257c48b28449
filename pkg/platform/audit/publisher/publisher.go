// Package publisher emits audit events to a sink behind a circuit breaker.
//
// Emission is fail-open: a sink outage must not take the engine down with it,
// so failures are counted, logged, and the event is dropped once the circuit
// opens. The authoritative state change has already committed by the time an
// event is emitted.
package publisher

import (
	"context"
	"log/slog"

	audit "fides/pkg/platform/audit"
	"fides/pkg/platform/circuit"
	"fides/pkg/requestcontext"
)

type Publisher struct {
	store   audit.Store
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) { p.breaker = b }
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:   store,
		breaker: circuit.NewBreaker(0, 0),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit fills derived fields and appends the event to the sink. The returned
// error is informational; callers do not roll back on it.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = audit.CategoryOf(event.Action)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}

	if !p.breaker.Allow() {
		p.logger.WarnContext(ctx, "audit sink circuit open, dropping event",
			"action", event.Action,
			"subject", event.Subject,
		)
		return nil
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.breaker.RecordFailure()
		p.logger.ErrorContext(ctx, "audit append failed",
			"action", event.Action,
			"subject", event.Subject,
			"error", err,
		)
		return err
	}
	p.breaker.RecordSuccess()
	return nil
}
