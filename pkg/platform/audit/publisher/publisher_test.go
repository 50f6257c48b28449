package publisher

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audit "fides/pkg/platform/audit"
	"fides/pkg/platform/audit/store/memory"
	"fides/pkg/platform/circuit"
	"fides/pkg/requestcontext"
)

type failingStore struct {
	calls atomic.Int32
}

func (f *failingStore) Append(context.Context, audit.Event) error {
	f.calls.Add(1)
	return errors.New("sink down")
}

func TestEmit(t *testing.T) {
	ctx := context.Background()

	t.Run("fills timestamp category and request id", func(t *testing.T) {
		sink := memory.New()
		p := New(sink)

		now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		ctx := requestcontext.WithTime(ctx, now)
		ctx = requestcontext.WithRequestID(ctx, "req-42")

		err := p.Emit(ctx, audit.Event{Action: audit.ActionVouchIssued, Subject: "vouch-1"})
		require.NoError(t, err)

		events := sink.List(ctx)
		require.Len(t, events, 1)
		assert.Equal(t, now, events[0].Timestamp)
		assert.Equal(t, audit.CategoryCompliance, events[0].Category)
		assert.Equal(t, "req-42", events[0].RequestID)
	})

	t.Run("open circuit drops events without touching the sink", func(t *testing.T) {
		sink := &failingStore{}
		p := New(sink, WithBreaker(circuit.NewBreaker(2, time.Hour)))

		_ = p.Emit(ctx, audit.Event{Action: audit.ActionReputationUpdated, Subject: "u1"})
		_ = p.Emit(ctx, audit.Event{Action: audit.ActionReputationUpdated, Subject: "u1"})
		require.EqualValues(t, 2, sink.calls.Load())

		// Circuit is now open; the sink must not see the third event.
		err := p.Emit(ctx, audit.Event{Action: audit.ActionReputationUpdated, Subject: "u1"})
		assert.NoError(t, err)
		assert.EqualValues(t, 2, sink.calls.Load())
	})
}
