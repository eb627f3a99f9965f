package engine

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// DefaultMaxFeedbackDepth bounds nested feedback pushes on one call stack.
const DefaultMaxFeedbackDepth = 256

// FeedbackGuard counts how deeply feedback pushes are nested on the
// current delivery stack and refuses to go past a limit.
//
// A feedback stream that is synchronously driven by its own previous
// value recurses Router -> channel -> logic -> Router without end. The
// guard turns that into a DepthExceededError instead of a stack overflow.
// Each instance has its own guard; depth returns to zero when the
// outermost push unwinds.
type FeedbackGuard struct {
	maxDepth int64
	depth    atomic.Int64
}

// NewFeedbackGuard creates a guard with the given limit.
func NewFeedbackGuard(maxDepth int) *FeedbackGuard {
	return &FeedbackGuard{maxDepth: int64(maxDepth)}
}

// Enter records one more level of nesting for channel.
// On error the level is not recorded and Leave must not be called.
func (g *FeedbackGuard) Enter(channel string) error {
	d := g.depth.Add(1)
	if d > g.maxDepth {
		g.depth.Add(-1)
		return &DepthExceededError{Channel: channel, Depth: int(d), Limit: int(g.maxDepth)}
	}
	return nil
}

// Leave pops one level.
func (g *FeedbackGuard) Leave() {
	g.depth.Add(-1)
}

// Depth returns the current nesting level.
func (g *FeedbackGuard) Depth() int {
	return int(g.depth.Load())
}

// MaxDepth returns the limit.
func (g *FeedbackGuard) MaxDepth() int {
	return int(g.maxDepth)
}

// DepthExceededError is returned by Enter when the limit is reached.
type DepthExceededError struct {
	Channel string
	Depth   int
	Limit   int
}

// Error implements the error interface.
func (e *DepthExceededError) Error() string {
	return fmt.Sprintf("feedback on %q nested %d deep > %d limit", e.Channel, e.Depth, e.Limit)
}

// IsDepthExceededError returns true if the error is a DepthExceededError.
func IsDepthExceededError(err error) bool {
	var de *DepthExceededError
	return errors.As(err, &de)
}
