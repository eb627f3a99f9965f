package engine

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/remod/internal/compiler"
	"github.com/roach88/remod/internal/ir"
	"github.com/roach88/remod/internal/stream"
)

// Engine wires module descriptors into live instances and owns them until
// they are closed. Instances share the engine's logger, hooks, ID
// generator and logical clock, and nothing else.
//
// Thread-safety: all methods are safe for concurrent use.
type Engine struct {
	logger   *slog.Logger
	hooks    Hooks
	ids      IDGenerator
	seq      Sequencer
	maxDepth int

	mu   sync.Mutex
	live []*Instance
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithHooks sets observability callbacks. Combine several with ChainHooks.
func WithHooks(h Hooks) EngineOption {
	return func(e *Engine) {
		e.hooks = h
	}
}

// WithIDGenerator sets the instance ID generator. Default: UUIDv7Generator.
func WithIDGenerator(g IDGenerator) EngineOption {
	return func(e *Engine) {
		e.ids = g
	}
}

// WithSequencer sets the logical clock. Default: a fresh Clock.
func WithSequencer(s Sequencer) EngineOption {
	return func(e *Engine) {
		e.seq = s
	}
}

// WithMaxFeedbackDepth bounds nested synchronous feedback per instance.
//
// Default: 256 (DefaultMaxFeedbackDepth)
// Use WithMaxFeedbackDepth(4) in tests of loop detection.
func WithMaxFeedbackDepth(n int) EngineOption {
	return func(e *Engine) {
		e.maxDepth = n
	}
}

// New creates an Engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{
		logger:   slog.Default(),
		ids:      UUIDv7Generator{},
		seq:      NewClock(),
		maxDepth: DefaultMaxFeedbackDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.maxDepth < 1 {
		e.maxDepth = 1
	}
	return e
}

// Wire instantiates m on a fresh engine. See (*Engine).Wire.
func Wire(m Module, opts ...EngineOption) (*Instance, error) {
	return New(opts...).Wire(m)
}

// Wire validates m, creates one channel per Input and Feedback name,
// invokes logic exactly once, wraps every output in a shared multicast,
// subscribes the feedback router and then the snapshot aggregator, and
// returns the wired instance.
//
// Contract violations are returned as *RuntimeError and leave nothing
// wired. A feedback fault raised by synchronous emissions during wiring
// also fails the wiring.
func (e *Engine) Wire(m Module) (*Instance, error) {
	spec := m.Spec

	if violations := validate(spec, m.Logic); len(violations) > 0 {
		err := NewContractError(spec.Name, violations)
		e.logger.Debug("wiring rejected", "module", spec.Name, "error", err)
		return nil, err
	}

	specHash, err := ir.SpecHash(spec)
	if err != nil {
		return nil, fmt.Errorf("hash spec %s: %w", spec.Name, err)
	}

	inst := &Instance{
		id:        e.ids.Generate(),
		spec:      spec,
		specHash:  specHash,
		engine:    e,
		log:       e.logger,
		channels:  make(map[string]*stream.Channel),
		guard:     NewFeedbackGuard(e.maxDepth),
		published: stream.NewChannel("snapshots"),
	}
	inst.snapshot.Store(newSnapshot(spec.Initial))

	// One channel per Input ∪ Feedback name, created exactly once.
	in := make(Streams)
	for _, name := range spec.Channels() {
		ch := stream.NewChannel(name)
		inst.channels[name] = ch
		in[name] = ch.Source()
	}

	out, err := callLogic(m.Logic, in)
	if err != nil {
		inst.Close()
		return nil, &RuntimeError{
			Code:       ErrCodeLogicPanic,
			Message:    err.Error(),
			Module:     spec.Name,
			InstanceID: inst.id,
		}
	}
	if violations := checkOutputs(spec, out); len(violations) > 0 {
		inst.Close()
		return nil, &RuntimeError{
			Code:       ErrCodeLogicOutputMismatch,
			Message:    "logic returned a different set of streams than declared",
			Module:     spec.Name,
			InstanceID: inst.id,
			Violations: violations,
		}
	}

	// Every output is hot: one upstream computation per value no matter
	// how many observers listen. Nothing flows until both router and
	// aggregator are attached, so synchronous emissions are not lost.
	published := make(map[string]*stream.Published, len(out))
	for _, name := range spec.LogicOutputs() {
		published[name] = stream.Publish(out[name])
	}

	if e.hooks.OnWired != nil {
		e.hooks.OnWired(inst.info(), spec)
	}
	inst.announced = true

	// Router first, so feedback is in place before any exposed value is folded.
	var routerSubs []*stream.Subscription
	for _, name := range spec.Feedback() {
		routerSubs = append(routerSubs, published[name].Subscribe(inst.route(name, inst.channels[name])))
	}
	inst.routerSub = stream.Group(routerSubs...)

	var aggSubs []*stream.Subscription
	for _, name := range spec.Exposed() {
		aggSubs = append(aggSubs, published[name].Subscribe(inst.fold(name)))
	}
	inst.aggSub = stream.Group(aggSubs...)

	var conns []*stream.Subscription
	for _, name := range spec.LogicOutputs() {
		conns = append(conns, published[name].Connect())
	}
	inst.connSub = stream.Group(conns...)

	if f := inst.fault.Load(); f != nil {
		inst.Close()
		return nil, f
	}

	inst.setters = &Setters{inst: inst, names: spec.Settable()}
	inst.state.Store(int32(StateWired))

	e.mu.Lock()
	e.live = append(e.live, inst)
	e.mu.Unlock()

	e.logger.Debug("instance wired",
		"instance", inst.id,
		"module", spec.Name,
		"channels", len(inst.channels),
		"setters", inst.setters.Names(),
	)
	return inst, nil
}

// Instances returns live instances in wiring order.
func (e *Engine) Instances() []*Instance {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]*Instance, len(e.live))
	copy(out, e.live)
	return out
}

// Shutdown closes every live instance, most recently wired first.
func (e *Engine) Shutdown() {
	live := e.Instances()
	for idx := len(live) - 1; idx >= 0; idx-- {
		live[idx].Close()
	}
}

func (e *Engine) forget(inst *Instance) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for idx, cur := range e.live {
		if cur == inst {
			e.live = append(e.live[:idx], e.live[idx+1:]...)
			return
		}
	}
}

func validate(spec ir.ModuleSpec, logic LogicFunc) []string {
	var violations []string
	for _, verr := range compiler.Validate(&spec) {
		violations = append(violations, verr.Error())
	}
	if logic == nil {
		violations = append(violations, "logic function is nil")
	}
	return violations
}

func callLogic(logic LogicFunc, in Streams) (out Streams, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("logic panicked: %v", r)
		}
	}()
	return logic(in), nil
}
