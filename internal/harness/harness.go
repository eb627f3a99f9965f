package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/remod/internal/engine"
	"github.com/roach88/remod/internal/ir"
	"github.com/roach88/remod/internal/logging"
	"github.com/roach88/remod/internal/modules"
	"github.com/roach88/remod/internal/store"
	"github.com/roach88/remod/internal/testutil"
)

// Harness is the test execution engine for one scenario run.
// It drives a single instance with a deterministic clock and instance ID
// and records everything into its own store.
type Harness struct {
	store    *store.Store
	recorder *store.Recorder
	engine   *engine.Engine
	clock    *testutil.DeterministicClock
	logger   *slog.Logger
}

// Run executes a scenario against the built-in module it names.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a context for the trace store.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	m, ok := modules.Lookup(scenario.Module)
	if !ok {
		return nil, fmt.Errorf("unknown module %q", scenario.Module)
	}
	return RunModule(ctx, m, scenario)
}

// RunModule executes a scenario against m, ignoring scenario.Module.
//
// Each run uses a fresh in-memory database. Execution flow:
//  1. Wire m with a deterministic clock and instance ID
//  2. Execute steps, checking expect_error on each
//  3. Close the instance
//  4. Read the trace and final snapshot back from the store
//  5. Evaluate assertions
//
// An error is returned only when the run itself could not happen: the
// store failed, or the module could not be wired. Step and assertion
// failures are reported in the Result.
func RunModule(ctx context.Context, m engine.Module, scenario *Scenario) (*Result, error) {
	st, err := store.Open(store.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h := &Harness{
		store:  st,
		clock:  testutil.NewDeterministicClock(),
		logger: logging.NewNop(),
	}
	h.recorder = store.NewRecorder(ctx, st, h.logger)

	opts := []engine.EngineOption{
		engine.WithLogger(h.logger),
		engine.WithHooks(h.recorder.Hooks()),
		engine.WithSequencer(h.clock),
		engine.WithIDGenerator(testutil.FixedID(scenario.InstanceID)),
	}
	if scenario.MaxFeedbackDepth > 0 {
		opts = append(opts, engine.WithMaxFeedbackDepth(scenario.MaxFeedbackDepth))
	}
	h.engine = engine.New(opts...)

	inst, err := h.engine.Wire(m)
	if err != nil {
		return nil, fmt.Errorf("failed to wire %s: %w", m.Spec.Name, err)
	}

	result := NewResult()
	result.Module = inst.Module()
	result.InstanceID = inst.ID()
	result.Setters = inst.Setters().Names()

	h.executeSteps(inst, scenario.Steps, result)
	inst.Close()

	if err := h.recorder.Err(); err != nil {
		return nil, fmt.Errorf("failed to record trace: %w", err)
	}
	if err := h.collect(ctx, inst.ID(), result); err != nil {
		return nil, err
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// executeSteps applies every step in order. A step that fails
// unexpectedly is reported and the run continues.
func (h *Harness) executeSteps(inst *engine.Instance, steps []Step, result *Result) {
	for i, step := range steps {
		if step.Close {
			inst.Close()
			h.logger.Debug("step completed", "step", i, "close", true)
			continue
		}

		value, err := ir.FromGo(step.Value)
		if err != nil {
			result.AddError(fmt.Sprintf("steps[%d]: %v", i, err))
			continue
		}

		err = inst.Set(step.Set, value)
		code := string(engine.CodeOf(err))
		switch {
		case step.ExpectError == "" && err != nil:
			result.AddError(fmt.Sprintf("steps[%d]: set %s: unexpected error: %v", i, step.Set, err))
		case step.ExpectError != "" && err == nil:
			result.AddError(fmt.Sprintf("steps[%d]: set %s: expected %s, got success", i, step.Set, step.ExpectError))
		case step.ExpectError != "" && code != step.ExpectError:
			result.AddError(fmt.Sprintf("steps[%d]: set %s: expected %s, got %v", i, step.Set, step.ExpectError, err))
		}

		h.logger.Debug("step completed",
			"step", i,
			"set", step.Set,
			"value", ir.Format(value),
			"seq", h.clock.Current(),
		)
	}
}

// collect reads the instance's trace and last snapshot back from the store.
func (h *Harness) collect(ctx context.Context, instanceID string, result *Result) error {
	emissions, err := h.store.ReadEmissions(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("failed to read trace: %w", err)
	}
	result.Trace = traceFrom(emissions)

	snap, err := h.store.LatestSnapshot(ctx, instanceID)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	result.Snapshot = snap.Values
	return nil
}
