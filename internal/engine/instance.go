package engine

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/roach88/remod/internal/ir"
	"github.com/roach88/remod/internal/stream"
)

// State is the lifecycle state of an instance.
type State int32

const (
	stateWiring State = iota
	// StateWired: channels exist, logic ran, router and aggregator subscribed.
	StateWired
	// StateTornDown: every subscription cancelled, channels closed.
	StateTornDown
)

func (s State) String() string {
	switch s {
	case StateWired:
		return "wired"
	case StateTornDown:
		return "torn_down"
	default:
		return "wiring"
	}
}

// Instance is one wired module: its own arena of channels and
// subscriptions with an explicit Close.
//
// Thread-safety: Set may be called from any goroutine; calls are
// serialized so each push and its whole feedback cascade run to completion
// before the next starts. Snapshot is a lock-free read.
type Instance struct {
	id       string
	spec     ir.ModuleSpec
	specHash string
	engine   *Engine
	log      *slog.Logger

	channels map[string]*stream.Channel
	guard    *FeedbackGuard
	setters  *Setters

	routerSub *stream.Subscription
	aggSub    *stream.Subscription
	connSub   *stream.Subscription

	// mu serializes Set.
	mu sync.Mutex

	// aggMu serializes folds into snapshot.
	aggMu     sync.Mutex
	snapshot  atomic.Pointer[Snapshot]
	published *stream.Channel

	state     atomic.Int32
	announced bool
	fault     atomic.Pointer[RuntimeError]
}

// ID returns the instance ID.
func (i *Instance) ID() string {
	return i.id
}

// Module returns the module name.
func (i *Instance) Module() string {
	return i.spec.Name
}

// Spec returns the module spec the instance was wired from.
func (i *Instance) Spec() ir.ModuleSpec {
	return i.spec
}

// SpecHash returns the content hash of the module spec.
func (i *Instance) SpecHash() string {
	return i.specHash
}

// State returns the lifecycle state.
func (i *Instance) State() State {
	return State(i.state.Load())
}

// Snapshot returns the current snapshot. It is never nil and always holds
// a value for every exposed output.
func (i *Instance) Snapshot() *Snapshot {
	return i.snapshot.Load()
}

// Snapshots streams a copy of every new snapshot record, synchronously,
// after each fold. It never replays; read Snapshot for the current value.
// Observers must not call setters of this instance.
func (i *Instance) Snapshots() stream.Source {
	return i.published.Source()
}

// Setters returns the setter surface.
func (i *Instance) Setters() *Setters {
	return i.setters
}

func (i *Instance) info() InstanceInfo {
	return InstanceInfo{ID: i.id, Module: i.spec.Name, SpecHash: i.specHash}
}

func (i *Instance) tornDown() bool {
	return i.State() == StateTornDown
}

// Set pushes v into input channel name and returns once the push and
// every synchronous consequence (feedback, folds, hooks) has finished.
// It returns the first fault recorded during that delivery.
func (i *Instance) Set(name string, v ir.Value) error {
	if !i.setters.Has(name) {
		return NewSetterError(i.spec.Name, i.id, name, i.spec.IsFeedback(name))
	}
	if v == nil {
		v = ir.Null{}
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.tornDown() {
		return NewTornDownError(i.spec.Name, i.id, name)
	}

	i.fault.Store(nil)
	i.emit(name, ir.KindInput, v, i.engine.seq.Next())
	i.channels[name].Push(v)

	if f := i.fault.Load(); f != nil {
		return f
	}
	return nil
}

// Close tears the instance down: router and aggregator subscriptions are
// cancelled together, then every channel is closed. Close is idempotent
// and safe to call from a hook.
func (i *Instance) Close() {
	for {
		cur := i.state.Load()
		if State(cur) == StateTornDown {
			return
		}
		if i.state.CompareAndSwap(cur, int32(StateTornDown)) {
			break
		}
	}

	i.routerSub.Cancel()
	i.aggSub.Cancel()
	i.connSub.Cancel()
	for _, name := range i.spec.Channels() {
		i.channels[name].Close()
	}
	i.published.Close()

	seq := i.engine.seq.Next()
	// A wiring rejected before OnWired was never observable as an instance.
	if i.announced {
		i.log.Debug("instance torn down", "instance", i.id, "module", i.spec.Name, "seq", seq)
		if i.engine.hooks.OnTornDown != nil {
			i.engine.hooks.OnTornDown(i.info(), seq)
		}
	}
	i.engine.forget(i)
}

// route returns the Feedback Router observer for one feedback-bound output.
func (i *Instance) route(name string, sink *stream.Channel) stream.Observer {
	return func(v ir.Value) {
		if i.tornDown() {
			return
		}
		if err := i.guard.Enter(name); err != nil {
			i.recordFault(NewFeedbackLoopError(i.spec.Name, i.id, err.(*DepthExceededError)))
			return
		}
		defer i.guard.Leave()

		i.emit(name, ir.KindFeedback, v, i.engine.seq.Next())
		sink.Push(v)
	}
}

// fold returns the Snapshot Aggregator observer for one exposed output.
func (i *Instance) fold(name string) stream.Observer {
	return func(v ir.Value) {
		i.aggMu.Lock()
		defer i.aggMu.Unlock()
		if i.tornDown() {
			return
		}

		seq := i.engine.seq.Next()
		next := i.snapshot.Load().with(name, v, seq)
		i.snapshot.Store(next)

		i.emit(name, ir.KindOutput, v, seq)
		if i.engine.hooks.OnSnapshot != nil {
			i.engine.hooks.OnSnapshot(i.info(), next)
		}
		if i.published.Subscribers() > 0 {
			i.published.Push(next.Record())
		}
	}
}

func (i *Instance) emit(channel string, kind ir.EmissionKind, v ir.Value, seq int64) {
	hook := i.engine.hooks.OnEmission
	if hook == nil {
		return
	}
	id, err := ir.EmissionID(i.id, channel, kind, v, seq)
	if err != nil {
		i.log.Warn("emission id", "instance", i.id, "channel", channel, "error", err)
	}
	hook(ir.Emission{
		ID:         id,
		InstanceID: i.id,
		Module:     i.spec.Name,
		Channel:    channel,
		Kind:       kind,
		Value:      v,
		Seq:        seq,
	})
}

// recordFault keeps the first fault of the current delivery and reports it.
func (i *Instance) recordFault(err *RuntimeError) {
	first := i.fault.CompareAndSwap(nil, err)
	if !first {
		return
	}
	i.log.Error("feedback loop detected",
		"instance", i.id,
		"module", i.spec.Name,
		"channel", err.Channel,
		"max_depth", i.guard.MaxDepth(),
	)
	if i.engine.hooks.OnFault != nil {
		i.engine.hooks.OnFault(i.info(), err)
	}
}

// checkOutputs compares logic's result with the declared output names.
func checkOutputs(spec ir.ModuleSpec, out Streams) []string {
	var violations []string
	want := spec.LogicOutputs()
	for _, name := range want {
		src, ok := out[name]
		switch {
		case !ok:
			violations = append(violations, fmt.Sprintf("logic output %q is missing", name))
		case src == nil:
			violations = append(violations, fmt.Sprintf("logic output %q is nil", name))
		}
	}
	var extra []string
	for name := range out {
		if !slices.Contains(want, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	for _, name := range extra {
		violations = append(violations, fmt.Sprintf("logic output %q is not a declared feedback or output name", name))
	}
	return violations
}
