package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct code", func(t *testing.T) {
		err := New(CodeConflict, "document was modified concurrently")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("claim: %w", New(CodeInvalidTransition, "document is terminal"))
		assert.True(t, HasCode(err, CodeInvalidTransition))
	})

	t.Run("matches inner coded error", func(t *testing.T) {
		inner := New(CodeTimeout, "deadline")
		err := Wrap(inner, CodeInternal, "failed to load document")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeTimeout))
		assert.Equal(t, CodeInternal, CodeOf(err))
	})

	t.Run("uncoded errors are internal", func(t *testing.T) {
		err := errors.New("boom")
		assert.False(t, HasCode(err, CodeValidation))
		assert.Equal(t, CodeInternal, CodeOf(err))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "failed to persist decision")
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "failed to persist decision")
	assert.Equal(t, CodeInternal, CodeOf(err))
}
