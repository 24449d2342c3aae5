package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCause(t *testing.T) {
	base := New(CodeForbidden, "permission denied")
	wrapped := Wrap(base, CodeForbidden, "only the owner")

	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "only the owner: permission denied", wrapped.Error())
	assert.True(t, HasCode(wrapped, CodeForbidden))
}

func TestIsMatchesByCodeAndMessage(t *testing.T) {
	err := fmt.Errorf("load: %w", New(CodeNotFound, "resident not found"))

	assert.ErrorIs(t, err, New(CodeNotFound, "resident not found"))
	assert.NotErrorIs(t, err, New(CodeNotFound, "topic not found"))
	assert.NotErrorIs(t, err, New(CodeConflict, "resident not found"))
}

func TestHasCode(t *testing.T) {
	t.Run("plain error has no code", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("boom"), CodeInternal))
	})

	t.Run("outermost code wins", func(t *testing.T) {
		err := Wrap(New(CodeNotFound, "x"), CodeInternal, "load failed")
		assert.True(t, Is(err, CodeInternal))
		assert.False(t, Is(err, CodeNotFound))
	})

	t.Run("from unwraps fmt chains", func(t *testing.T) {
		de, ok := From(fmt.Errorf("ctx: %w", New(CodeTimeout, "slow")))
		require.True(t, ok)
		assert.Equal(t, CodeTimeout, de.Code)
	})
}
