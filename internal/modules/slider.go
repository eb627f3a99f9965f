package modules

import (
	"strconv"

	"github.com/roach88/remod/internal/engine"
	"github.com/roach88/remod/internal/ir"
	"github.com/roach88/remod/internal/stream"
)

const (
	// progressPerPixel is per-mille progress per pixel of horizontal drag.
	progressPerPixel = 5
	maxProgress      = 1000
)

// sliderLogic turns horizontal thumb drags into progress along a path.
// Dragging left (x decreasing) fills the path.
func sliderLogic(in engine.Streams) engine.Streams {
	path := in["pathElementChanged"]

	showProgress := stream.Map(path, func(v ir.Value) ir.Value {
		return ir.Bool(v.Kind() != ir.KindNull)
	})

	// Drag events report x = 0 at the start and end of every gesture. A
	// step is the move between two positive positions of one gesture; the
	// first position of a gesture only anchors it.
	moves := stream.Scan(in["draggedThumb"], ir.List{ir.Int(0), ir.Null{}}, func(acc, v ir.Value) ir.Value {
		rec, _ := v.(ir.Record)
		x := asInt(rec["x"])
		prev := asInt(acc.(ir.List)[0])
		switch {
		case x <= 0:
			return ir.List{ir.Int(0), ir.Null{}}
		case prev <= 0:
			return ir.List{x, ir.Null{}}
		}
		return ir.List{x, prev - x}
	})
	steps := stream.Map(
		stream.Filter(moves, func(v ir.Value) bool { return v.(ir.List)[1].Kind() != ir.KindNull }),
		func(v ir.Value) ir.Value { return v.(ir.List)[1] },
	)

	progress := stream.ShareReplay(stream.StartWith(
		stream.Scan(steps, ir.Int(0), func(acc, step ir.Value) ir.Value {
			return clamp(asInt(acc)+asInt(step)*progressPerPixel, 0, maxProgress)
		}),
		ir.Int(0),
	))

	attached := stream.Filter(path, func(v ir.Value) bool { return v.Kind() != ir.KindNull })
	detached := stream.Filter(path, func(v ir.Value) bool { return v.Kind() == ir.KindNull })

	progressAndLength := stream.ShareReplay(stream.CombineLatest(
		[]stream.Source{progress, attached},
		func(values []ir.Value) ir.Value { return ir.List{values[0], values[1]} },
	))

	strokeDasharray := stream.Merge(
		stream.MapTo(detached, ir.Null{}),
		stream.Map(progressAndLength, func(v ir.Value) ir.Value {
			filled, total := filledOf(v)
			return ir.String(strconv.FormatInt(filled, 10) + "," + strconv.FormatInt(total-filled, 10))
		}),
	)

	filledLength := stream.Map(progressAndLength, func(v ir.Value) ir.Value {
		filled, _ := filledOf(v)
		return ir.Int(filled)
	})

	return engine.Streams{
		"progress":        stream.DistinctUntilChanged(progress),
		"showProgress":    showProgress,
		"strokeDasharray": strokeDasharray,
		"filledLength":    filledLength,
	}
}

// filledOf splits a [progress, totalLength] pair into filled and total length.
func filledOf(v ir.Value) (filled, total int64) {
	pair := v.(ir.List)
	progress := int64(asInt(pair[0]))
	total = int64(asInt(pair[1]))
	return total * progress / maxProgress, total
}

func clamp(v, lo, hi ir.Int) ir.Int {
	return max(lo, min(hi, v))
}
