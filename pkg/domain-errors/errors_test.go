package derrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("direct error carries its code", func(t *testing.T) {
		err := New(CodeConflict, "already registered")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeValidation))
	})

	t.Run("wrapped error is still matchable", func(t *testing.T) {
		cause := errors.New("pq: connection refused")
		err := Wrap(cause, CodeInternal, "save profile")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, errors.Is(err, cause))
	})

	t.Run("double wrap reports the outermost code", func(t *testing.T) {
		inner := New(CodeNotFound, "profile missing")
		outer := Wrap(inner, CodeConflict, "cannot vouch")
		assert.True(t, HasCode(outer, CodeConflict))
	})

	t.Run("plain error has no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})
}

func TestIs(t *testing.T) {
	var errAlreadyVoted = New(CodeConflict, "already voted")

	t.Run("exported value matches its own occurrences", func(t *testing.T) {
		returned := New(CodeConflict, "already voted")
		assert.True(t, errors.Is(returned, errAlreadyVoted))
	})

	t.Run("same code different message does not match", func(t *testing.T) {
		other := New(CodeConflict, "already executed")
		assert.False(t, errors.Is(other, errAlreadyVoted))
	})

	t.Run("fmt wrapping preserves identity", func(t *testing.T) {
		wrapped := fmt.Errorf("cast vote: %w", errAlreadyVoted)
		assert.True(t, errors.Is(wrapped, errAlreadyVoted))
	})
}

func TestWrapNil(t *testing.T) {
	require.Nil(t, Wrap(nil, CodeInternal, "noop"))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeForbidden, CodeOf(New(CodeForbidden, "missing role")))
	assert.Equal(t, CodeInternal, CodeOf(errors.New("unclassified")))
}
