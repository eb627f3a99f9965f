package modules

import (
	"strconv"

	"github.com/roach88/remod/internal/engine"
	"github.com/roach88/remod/internal/ir"
	"github.com/roach88/remod/internal/stream"
)

func progressLogic(in engine.Streams) engine.Streams {
	return engine.Streams{
		"progress": stream.Map(in["progressChanged"], func(v ir.Value) ir.Value {
			return ir.String(strconv.FormatInt(percent(int64(asInt(v))), 10) + "%")
		}),
	}
}

// percent rounds per-mille to the nearest whole percent, halves up.
func percent(perMille int64) int64 {
	return floorDiv(perMille+5, 10)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
