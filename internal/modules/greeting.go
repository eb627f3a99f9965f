package modules

import (
	"fmt"

	"github.com/roach88/remod/internal/engine"
	"github.com/roach88/remod/internal/ir"
	"github.com/roach88/remod/internal/stream"
)

func greetingLogic(in engine.Streams) engine.Streams {
	names := stream.CombineLatest(
		[]stream.Source{
			stream.StartWith(in["firstName"], ir.String("")),
			stream.StartWith(in["lastName"], ir.String("")),
		},
		func(values []ir.Value) ir.Value {
			return ir.String(fmt.Sprintf("Hello, %s %s", asText(values[0]), asText(values[1])))
		},
	)
	// The first combination is the two empty seeds; greet only after a push.
	return engine.Streams{"greeting": stream.Skip(names, 1)}
}
