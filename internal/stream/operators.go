package stream

import (
	"sync"

	"github.com/roach88/remod/internal/ir"
)

// Operators below are cold: every Subscribe builds an independent pipeline
// with its own state. Per-subscription state assumes the upstream delivers
// serially, which holds for channels driven by one engine instance.

// Map applies f to every value.
func Map(src Source, f func(ir.Value) ir.Value) Source {
	return SourceFunc(func(o Observer) *Subscription {
		return src.Subscribe(func(v ir.Value) { o(f(v)) })
	})
}

// MapTo replaces every value with v.
func MapTo(src Source, v ir.Value) Source {
	return Map(src, func(ir.Value) ir.Value { return v })
}

// Filter forwards values for which keep returns true.
func Filter(src Source, keep func(ir.Value) bool) Source {
	return SourceFunc(func(o Observer) *Subscription {
		return src.Subscribe(func(v ir.Value) {
			if keep(v) {
				o(v)
			}
		})
	})
}

// Scan folds values into an accumulator starting at seed and emits every
// intermediate accumulator.
func Scan(src Source, seed ir.Value, f func(acc, v ir.Value) ir.Value) Source {
	return SourceFunc(func(o Observer) *Subscription {
		acc := seed
		return src.Subscribe(func(v ir.Value) {
			acc = f(acc, v)
			o(acc)
		})
	})
}

// StartWith emits vals synchronously on subscribe, then follows src.
func StartWith(src Source, vals ...ir.Value) Source {
	return SourceFunc(func(o Observer) *Subscription {
		for _, v := range vals {
			o(v)
		}
		return src.Subscribe(o)
	})
}

// Skip drops the first n values.
func Skip(src Source, n int) Source {
	return SourceFunc(func(o Observer) *Subscription {
		seen := 0
		return src.Subscribe(func(v ir.Value) {
			if seen < n {
				seen++
				return
			}
			o(v)
		})
	})
}

// Merge interleaves values from all srcs in arrival order.
func Merge(srcs ...Source) Source {
	return SourceFunc(func(o Observer) *Subscription {
		subs := make([]*Subscription, len(srcs))
		for i, src := range srcs {
			subs[i] = src.Subscribe(o)
		}
		return Group(subs...)
	})
}

// WithLatestFrom emits combine(v, latest) for every value of src, where
// latest is the most recent value of other. Values of src that arrive
// before other has emitted are dropped. other is subscribed first so a
// synchronous StartWith on it is seen before src can emit.
func WithLatestFrom(src, other Source, combine func(v, latest ir.Value) ir.Value) Source {
	return SourceFunc(func(o Observer) *Subscription {
		var (
			mu     sync.Mutex
			latest ir.Value
			ready  bool
		)
		otherSub := other.Subscribe(func(v ir.Value) {
			mu.Lock()
			latest, ready = v, true
			mu.Unlock()
		})
		srcSub := src.Subscribe(func(v ir.Value) {
			mu.Lock()
			l, ok := latest, ready
			mu.Unlock()
			if ok {
				o(combine(v, l))
			}
		})
		return Group(srcSub, otherSub)
	})
}

// CombineLatest emits combine(values) whenever any source emits, once
// every source has emitted at least once. values is a fresh slice per call.
func CombineLatest(srcs []Source, combine func(values []ir.Value) ir.Value) Source {
	return SourceFunc(func(o Observer) *Subscription {
		var mu sync.Mutex
		latest := make([]ir.Value, len(srcs))
		have := make([]bool, len(srcs))
		missing := len(srcs)

		subs := make([]*Subscription, len(srcs))
		for i, src := range srcs {
			subs[i] = src.Subscribe(func(v ir.Value) {
				mu.Lock()
				if !have[i] {
					have[i] = true
					missing--
				}
				latest[i] = v
				ready := missing == 0
				values := append([]ir.Value(nil), latest...)
				mu.Unlock()
				if ready {
					o(combine(values))
				}
			})
		}
		return Group(subs...)
	})
}

// Pairwise emits ir.List{previous, current} from the second value on.
func Pairwise(src Source) Source {
	return SourceFunc(func(o Observer) *Subscription {
		var (
			prev ir.Value
			has  bool
		)
		return src.Subscribe(func(v ir.Value) {
			if has {
				o(ir.List{prev, v})
			}
			prev, has = v, true
		})
	})
}

// DistinctUntilChanged drops values equal to the previous one.
func DistinctUntilChanged(src Source) Source {
	return SourceFunc(func(o Observer) *Subscription {
		var (
			prev ir.Value
			has  bool
		)
		return src.Subscribe(func(v ir.Value) {
			if has && ir.Equal(prev, v) {
				return
			}
			prev, has = v, true
			o(v)
		})
	})
}
