package modules

import (
	"strconv"

	"github.com/roach88/remod/internal/engine"
	"github.com/roach88/remod/internal/ir"
	"github.com/roach88/remod/internal/stream"
)

// counterLogic adds +1 or -1 to the last count it fed back to itself.
// The sum is shared so currentCount and displayText see one computation.
func counterLogic(in engine.Streams) engine.Streams {
	delta := stream.Merge(
		stream.MapTo(in["decrement"], ir.Int(-1)),
		stream.MapTo(in["increment"], ir.Int(1)),
	)
	count := stream.Share(stream.WithLatestFrom(
		delta,
		stream.StartWith(in["currentCount"], ir.Int(0)),
		func(offset, current ir.Value) ir.Value {
			return asInt(current) + asInt(offset)
		},
	))
	return engine.Streams{
		"currentCount": count,
		"displayText": stream.Map(count, func(v ir.Value) ir.Value {
			return ir.String(strconv.FormatInt(int64(asInt(v)), 10))
		}),
	}
}

// asInt reads an Int, treating anything else as zero.
func asInt(v ir.Value) ir.Int {
	n, _ := v.(ir.Int)
	return n
}

// asText reads a String; other values are rendered as JSON.
func asText(v ir.Value) string {
	switch val := v.(type) {
	case ir.String:
		return string(val)
	case nil, ir.Null:
		return ""
	default:
		return ir.Format(v)
	}
}
