package testutil

import (
	"sync"

	"github.com/roach88/remod/internal/engine"
	"github.com/roach88/remod/internal/ir"
)

// Trace collects everything an engine reports through its hooks.
//
//	tr := testutil.NewTrace()
//	inst, err := engine.New(engine.WithHooks(tr.Hooks())).Wire(m)
//	...
//	tr.Values("displayText", ir.KindOutput)
type Trace struct {
	mu        sync.Mutex
	wired     []engine.InstanceInfo
	emissions []ir.Emission
	snapshots []ir.Record
	faults    []*engine.RuntimeError
	tornDown  []engine.InstanceInfo
}

// NewTrace creates an empty trace.
func NewTrace() *Trace {
	return &Trace{}
}

// Hooks returns hooks that append to the trace.
func (t *Trace) Hooks() engine.Hooks {
	return engine.Hooks{
		OnWired: func(info engine.InstanceInfo, _ ir.ModuleSpec) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.wired = append(t.wired, info)
		},
		OnEmission: func(e ir.Emission) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.emissions = append(t.emissions, e)
		},
		OnSnapshot: func(_ engine.InstanceInfo, s *engine.Snapshot) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.snapshots = append(t.snapshots, s.Record())
		},
		OnFault: func(_ engine.InstanceInfo, err *engine.RuntimeError) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.faults = append(t.faults, err)
		},
		OnTornDown: func(info engine.InstanceInfo, _ int64) {
			t.mu.Lock()
			defer t.mu.Unlock()
			t.tornDown = append(t.tornDown, info)
		},
	}
}

// Emissions returns a copy of all emissions in delivery order.
func (t *Trace) Emissions() []ir.Emission {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ir.Emission, len(t.emissions))
	copy(out, t.emissions)
	return out
}

// Values returns the values emitted on channel with the given kind.
func (t *Trace) Values(channel string, kind ir.EmissionKind) []ir.Value {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []ir.Value
	for _, e := range t.emissions {
		if e.Channel == channel && e.Kind == kind {
			out = append(out, e.Value)
		}
	}
	return out
}

// Snapshots returns every published snapshot record in order.
func (t *Trace) Snapshots() []ir.Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]ir.Record, len(t.snapshots))
	copy(out, t.snapshots)
	return out
}

// Faults returns recorded runtime faults.
func (t *Trace) Faults() []*engine.RuntimeError {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*engine.RuntimeError, len(t.faults))
	copy(out, t.faults)
	return out
}

// Wired returns the instances announced through OnWired.
func (t *Trace) Wired() []engine.InstanceInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]engine.InstanceInfo, len(t.wired))
	copy(out, t.wired)
	return out
}

// TornDown returns the instances reported through OnTornDown.
func (t *Trace) TornDown() []engine.InstanceInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]engine.InstanceInfo, len(t.tornDown))
	copy(out, t.tornDown)
	return out
}
