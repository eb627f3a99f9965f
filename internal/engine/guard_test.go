package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeedbackGuard_EnterLeave(t *testing.T) {
	g := NewFeedbackGuard(2)

	require.NoError(t, g.Enter("a"))
	require.NoError(t, g.Enter("a"))
	assert.Equal(t, 2, g.Depth())

	err := g.Enter("a")
	require.Error(t, err)
	assert.True(t, IsDepthExceededError(err))
	assert.Equal(t, 2, g.Depth(), "a refused Enter does not count")

	g.Leave()
	g.Leave()
	assert.Equal(t, 0, g.Depth())
	require.NoError(t, g.Enter("a"), "depth is reusable after unwinding")
}

func TestDepthExceededError_Message(t *testing.T) {
	g := NewFeedbackGuard(1)
	require.NoError(t, g.Enter("tick"))

	err := g.Enter("tick")
	var de *DepthExceededError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "tick", de.Channel)
	assert.Equal(t, 2, de.Depth)
	assert.Equal(t, 1, de.Limit)
	assert.Equal(t, `feedback on "tick" nested 2 deep > 1 limit`, err.Error())
}

func TestIsFeedbackLoopError(t *testing.T) {
	de := &DepthExceededError{Channel: "x", Depth: 5, Limit: 4}

	assert.True(t, IsFeedbackLoopError(de))
	assert.True(t, IsFeedbackLoopError(fmt.Errorf("wrapped: %w", de)))
	assert.True(t, IsFeedbackLoopError(NewFeedbackLoopError("M", "i", de)))
	assert.False(t, IsFeedbackLoopError(NewTornDownError("M", "i", "x")))
	assert.False(t, IsFeedbackLoopError(nil))
}
