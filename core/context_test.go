package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndGetOutcome(t *testing.T) {
	t.Run("set and get outcome successfully", func(t *testing.T) {
		expected := Authenticated("user123", Claims{"sub": "user123"})

		ctx := SetOutcome(context.Background(), expected)
		outcome, err := GetOutcome(ctx)

		require.NoError(t, err)
		assert.Equal(t, expected, outcome)
		assert.Equal(t, "user123", Subject(ctx))
		assert.True(t, HasOutcome(ctx))
	})

	t.Run("get outcome from empty context returns error", func(t *testing.T) {
		_, err := GetOutcome(context.Background())

		assert.ErrorIs(t, err, ErrOutcomeNotFound)
		assert.Empty(t, Subject(context.Background()))
		assert.False(t, HasOutcome(context.Background()))
	})

	t.Run("subject of a rejected outcome is empty", func(t *testing.T) {
		ctx := SetOutcome(context.Background(), Rejected(ReasonExpired, nil))
		assert.Empty(t, Subject(ctx))
	})
}
