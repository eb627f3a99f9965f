package harness

import "github.com/roach88/remod/internal/ir"

// TraceEvent is one recorded emission as the harness compares it. The
// emission ID is left out: it is derived from the other fields.
type TraceEvent struct {
	Seq     int64           `json:"seq"`
	Channel string          `json:"channel"`
	Kind    ir.EmissionKind `json:"kind"`
	Value   ir.Value        `json:"value"`
}

// Record renders the event as a Value, for golden traces.
func (e TraceEvent) Record() ir.Record {
	v := e.Value
	if v == nil {
		v = ir.Null{}
	}
	return ir.Record{
		"seq":     ir.Int(e.Seq),
		"channel": ir.String(e.Channel),
		"kind":    ir.String(e.Kind),
		"value":   v,
	}
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every step behaved as expected and every assertion held.
	Pass bool `json:"pass"`

	// Module is the wired module's name.
	Module string `json:"module"`

	// InstanceID is the ID the module was wired under.
	InstanceID string `json:"instance_id"`

	// Setters lists the instance's settable input names.
	Setters []string `json:"setters"`

	// Trace contains every recorded emission in seq order, read back
	// from the trace store.
	Trace []TraceEvent `json:"trace"`

	// Snapshot is the last recorded snapshot.
	Snapshot ir.Record `json:"snapshot"`

	// Errors contains step and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:     true,
		Trace:    []TraceEvent{},
		Snapshot: ir.Record{},
		Errors:   []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func traceFrom(emissions []ir.Emission) []TraceEvent {
	out := make([]TraceEvent, len(emissions))
	for i, e := range emissions {
		out[i] = TraceEvent{Seq: e.Seq, Channel: e.Channel, Kind: e.Kind, Value: e.Value}
	}
	return out
}
