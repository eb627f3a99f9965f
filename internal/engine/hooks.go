package engine

import "github.com/roach88/remod/internal/ir"

// InstanceInfo identifies an instance to hooks.
type InstanceInfo struct {
	ID       string
	Module   string
	SpecHash string
}

// Hooks are optional observability callbacks.
//
// Hooks run synchronously on the delivering stack, after the event they
// describe has taken effect. They must not call setters of the instance
// that invoked them; they may call Close.
type Hooks struct {
	// OnWired fires once channels exist and logic returned, before the
	// router and aggregator subscribe.
	OnWired func(InstanceInfo, ir.ModuleSpec)

	// OnEmission fires for every input push, feedback push and output fold.
	OnEmission func(ir.Emission)

	// OnSnapshot fires after each fold with the new snapshot.
	OnSnapshot func(InstanceInfo, *Snapshot)

	// OnFault fires when the router records a runtime fault.
	OnFault func(InstanceInfo, *RuntimeError)

	// OnTornDown fires once when an announced instance is closed.
	OnTornDown func(InstanceInfo, int64)
}

// ChainHooks combines hooks so each callback runs all non-nil callbacks
// in argument order.
func ChainHooks(hooks ...Hooks) Hooks {
	var out Hooks
	for _, h := range hooks {
		if h.OnWired != nil {
			prev := out.OnWired
			out.OnWired = func(info InstanceInfo, spec ir.ModuleSpec) {
				if prev != nil {
					prev(info, spec)
				}
				h.OnWired(info, spec)
			}
		}
		if h.OnEmission != nil {
			prev := out.OnEmission
			out.OnEmission = func(e ir.Emission) {
				if prev != nil {
					prev(e)
				}
				h.OnEmission(e)
			}
		}
		if h.OnSnapshot != nil {
			prev := out.OnSnapshot
			out.OnSnapshot = func(info InstanceInfo, s *Snapshot) {
				if prev != nil {
					prev(info, s)
				}
				h.OnSnapshot(info, s)
			}
		}
		if h.OnFault != nil {
			prev := out.OnFault
			out.OnFault = func(info InstanceInfo, err *RuntimeError) {
				if prev != nil {
					prev(info, err)
				}
				h.OnFault(info, err)
			}
		}
		if h.OnTornDown != nil {
			prev := out.OnTornDown
			out.OnTornDown = func(info InstanceInfo, seq int64) {
				if prev != nil {
					prev(info, seq)
				}
				h.OnTornDown(info, seq)
			}
		}
	}
	return out
}
