package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker(t *testing.T) {
	t.Run("closed by default", func(t *testing.T) {
		b := NewBreaker(3, time.Minute)
		assert.True(t, b.Allow())
		assert.False(t, b.IsOpen())
	})

	t.Run("opens at threshold", func(t *testing.T) {
		b := NewBreaker(3, time.Minute)
		b.RecordFailure()
		b.RecordFailure()
		assert.True(t, b.Allow())
		b.RecordFailure()
		assert.False(t, b.Allow())
		assert.True(t, b.IsOpen())
	})

	t.Run("success resets the failure run", func(t *testing.T) {
		b := NewBreaker(2, time.Minute)
		b.RecordFailure()
		b.RecordSuccess()
		b.RecordFailure()
		assert.True(t, b.Allow())
	})

	t.Run("half-open after cooldown", func(t *testing.T) {
		b := NewBreaker(1, 10*time.Millisecond)
		b.RecordFailure()
		assert.False(t, b.Allow())

		time.Sleep(20 * time.Millisecond)
		assert.True(t, b.Allow())
	})
}
