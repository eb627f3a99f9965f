package engine

import (
	"github.com/roach88/remod/internal/ir"
	"github.com/roach88/remod/internal/stream"
)

// Streams maps channel names to streams.
type Streams map[string]stream.Source

// LogicFunc is a module's pure mapping from input and feedback streams to
// feedback and output streams. It is invoked exactly once per instance.
//
// in holds one source per Input and Feedback name. The result must hold
// exactly one non-nil source per PureFeedback, OutputFeedback and
// PureOutput name. Logic must not push, block, or do I/O: it only composes
// streams. A stream that several outputs derive from should be wrapped in
// stream.Share so it is computed once per value.
type LogicFunc func(in Streams) Streams

// Module is a complete descriptor: the declarative spec plus its logic.
type Module struct {
	Spec  ir.ModuleSpec
	Logic LogicFunc
}
