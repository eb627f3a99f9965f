package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/remod/internal/engine"
	"github.com/roach88/remod/internal/ir"
	"github.com/roach88/remod/internal/metrics"
	"github.com/roach88/remod/internal/modules"
	"github.com/roach88/remod/internal/store"
)

// DriveOptions holds flags for the drive command.
type DriveOptions struct {
	*RootOptions
	Sets     []string // name=json pushes, in order
	Database string   // optional trace database
	Metrics  bool     // print Prometheus metrics after the run
	MaxDepth int      // feedback depth limit; 0 means the engine default
}

// Push is one parsed --set flag.
type Push struct {
	Name  string
	Value ir.Value
}

// DriveResult is the final state of a driven instance.
type DriveResult struct {
	InstanceID string         `json:"instance_id"`
	Module     string         `json:"module"`
	Pushes     int            `json:"pushes"`
	Version    int64          `json:"version"`
	Hash       string         `json:"hash"`
	Snapshot   map[string]any `json:"snapshot"`
	Metrics    string         `json:"metrics,omitempty"`
}

// NewDriveCommand creates the drive command.
func NewDriveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DriveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "drive <module>",
		Short: "Wire a built-in module and push values into it",
		Long: `Wire a built-in module, apply each --set in order and print the
final snapshot.

Each --set is name=value where value is JSON (integers, strings, booleans,
lists, objects or null). A bare name pushes null, as for a click.

With --db every emission and snapshot is recorded to a SQLite trace
database that "remod trace" can read. With --metrics the Prometheus text
exposition of the run's counters is printed after the snapshot.

Exit codes:
  0 - Every push succeeded
  1 - A push failed (feedback loop, feedback-bound or unknown input)
  2 - Command error (unknown module, malformed --set, database error)

Examples:
  remod drive Counter --set increment --set increment --set decrement
  remod drive Progress --set progressChanged=995
  remod drive Greeting --set 'firstName="Ada"' --db ./trace.db --metrics`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDrive(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringArrayVar(&opts.Sets, "set", nil, "push name=json into an input (repeatable)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the trace to this SQLite database")
	cmd.Flags().BoolVar(&opts.Metrics, "metrics", false, "print Prometheus metrics after the run")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "feedback depth limit (0 = engine default)")

	return cmd
}

// ParsePush parses one name=json argument.
func ParsePush(arg string) (Push, error) {
	name, raw, found := strings.Cut(arg, "=")
	name = strings.TrimSpace(name)
	if name == "" {
		return Push{}, fmt.Errorf("missing input name in %q", arg)
	}
	if !found || strings.TrimSpace(raw) == "" {
		return Push{Name: name, Value: ir.Null{}}, nil
	}
	v, err := ir.UnmarshalValue([]byte(raw))
	if err != nil {
		return Push{}, fmt.Errorf("value for %s: %w", name, err)
	}
	return Push{Name: name, Value: v}, nil
}

func runDrive(opts *DriveOptions, moduleName string, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)
	log := opts.logger()

	m, ok := modules.Lookup(moduleName)
	if !ok {
		_ = formatter.Error(ErrCodeUnknownModule, fmt.Sprintf("unknown module %q (have %s)", moduleName, strings.Join(modules.Names(), ", ")), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("unknown module %q", moduleName))
	}

	pushes := make([]Push, 0, len(opts.Sets))
	for _, arg := range opts.Sets {
		p, err := ParsePush(arg)
		if err != nil {
			_ = formatter.Error(ErrCodeBadPush, err.Error(), nil)
			return WrapExitError(ExitCommandError, "invalid --set", err)
		}
		pushes = append(pushes, p)
	}

	var hooks []engine.Hooks

	var recorder *store.Recorder
	if opts.Database != "" {
		st, err := store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer st.Close()
		recorder = store.NewRecorder(ctx, st, log)
		hooks = append(hooks, recorder.Hooks())
	}

	registry := prometheus.NewRegistry()
	if opts.Metrics {
		collector, err := metrics.New(registry)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to register metrics", err)
		}
		hooks = append(hooks, collector.Hooks())
	}

	engineOpts := []engine.EngineOption{
		engine.WithLogger(log),
		engine.WithHooks(engine.ChainHooks(hooks...)),
	}
	if opts.MaxDepth > 0 {
		engineOpts = append(engineOpts, engine.WithMaxFeedbackDepth(opts.MaxDepth))
	}
	eng := engine.New(engineOpts...)

	inst, err := eng.Wire(m)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitFailure, "failed to wire "+m.Spec.Name, err)
	}

	var pushErr error
	applied := 0
	for _, p := range pushes {
		log.Debug("push", "instance", inst.ID(), "input", p.Name, "value", ir.Format(p.Value))
		if err := inst.Set(p.Name, p.Value); err != nil {
			pushErr = err
			break
		}
		applied++
	}

	snap := inst.Snapshot()
	inst.Close()

	if recorder != nil {
		if err := recorder.Err(); err != nil {
			return WrapExitError(ExitCommandError, "failed to record trace", err)
		}
	}

	result := DriveResult{
		InstanceID: inst.ID(),
		Module:     inst.Module(),
		Pushes:     applied,
		Version:    snap.Version(),
		Hash:       snap.Hash(),
		Snapshot:   snapshotMap(snap.Record()),
	}
	if opts.Metrics {
		var b strings.Builder
		if err := metrics.WriteText(&b, registry); err != nil {
			return WrapExitError(ExitCommandError, "failed to render metrics", err)
		}
		result.Metrics = b.String()
	}

	if err := outputDrive(formatter, result, snap.Record(), pushErr); err != nil {
		return err
	}
	if pushErr != nil {
		return WrapExitError(ExitFailure, fmt.Sprintf("push %d failed", applied+1), pushErr)
	}
	return nil
}

// errorCode returns the runtime error code of err, or ErrCodePushFailed.
func errorCode(err error) string {
	if code := engine.CodeOf(err); code != "" {
		return string(code)
	}
	return ErrCodePushFailed
}

func snapshotMap(rec ir.Record) map[string]any {
	m, _ := ir.ToGo(rec).(map[string]any)
	return m
}

func outputDrive(formatter *OutputFormatter, result DriveResult, snapshot ir.Record, pushErr error) error {
	if formatter.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if pushErr != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: errorCode(pushErr), Message: pushErr.Error()}
		}
		return formatter.Respond(resp)
	}

	w := formatter.Writer
	if pushErr != nil {
		fmt.Fprintf(w, "✗ %v\n\n", pushErr)
	}
	fmt.Fprintf(w, "%s %s (version %d)\n", result.Module, result.InstanceID, result.Version)
	for _, key := range snapshot.SortedKeys() {
		fmt.Fprintf(w, "  %s = %s\n", key, ir.Format(snapshot[key]))
	}
	if result.Metrics != "" {
		fmt.Fprintln(w)
		fmt.Fprint(w, result.Metrics)
	}
	return nil
}
