package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/remod/internal/ir"
	"github.com/roach88/remod/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database   string
	InstanceID string // optional - show one instance's timeline
	Channel    string // optional - filter the timeline to one channel
	Kind       string // optional - filter the timeline to one emission kind
}

// TraceEvent represents a single emission in the trace timeline.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Channel string `json:"channel"`
	Value   any    `json:"value"`
}

// InstanceSummary is one row of the instance listing.
type InstanceSummary struct {
	ID          string `json:"id"`
	Module      string `json:"module"`
	SpecHash    string `json:"spec_hash"`
	Emissions   int    `json:"emissions"`
	Live        bool   `json:"live"`
	TornDownSeq int64  `json:"torn_down_seq,omitempty"`
}

// TraceResult holds one instance's complete trace.
type TraceResult struct {
	Instance InstanceSummary `json:"instance"`
	Timeline []TraceEvent    `json:"timeline"`
	Snapshot map[string]any  `json:"snapshot"`
	Version  int64           `json:"version"`
	Stats    TraceStats      `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int `json:"total_events"`
	Inputs      int `json:"inputs"`
	Feedback    int `json:"feedback"`
	Outputs     int `json:"outputs"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect a recorded trace database",
		Long: `Inspect a trace database written by "remod drive --db".

Without --instance, lists every recorded instance. With --instance, shows
that instance's emission timeline in seq order and its last snapshot.

Examples:
  remod trace --db ./trace.db
  remod trace --db ./trace.db --instance 0190c2a4-...
  remod trace --db ./trace.db --instance 0190c2a4-... --channel displayText --format json
  remod trace --db ./trace.db --instance 0190c2a4-... --kind feedback`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.InstanceID, "instance", "", "instance ID to show")
	cmd.Flags().StringVar(&opts.Channel, "channel", "", "only show emissions on this channel")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only show emissions of this kind (input|feedback|output)")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.InstanceID == "" {
		return listInstances(ctx, st, formatter)
	}
	return showInstance(ctx, st, opts, formatter)
}

func listInstances(ctx context.Context, st *store.Store, formatter *OutputFormatter) error {
	instances, err := st.ListInstances(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list instances", err)
	}

	summaries := make([]InstanceSummary, 0, len(instances))
	for _, inst := range instances {
		summary, err := summarize(ctx, st, inst)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to count emissions", err)
		}
		summaries = append(summaries, summary)
	}

	if formatter.JSON() {
		return formatter.Success(summaries)
	}

	w := formatter.Writer
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No instances recorded.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(w, "%s  %-16s %4d emissions  %s\n", s.ID, s.Module, s.Emissions, liveStatus(s.Live))
	}
	return nil
}

func summarize(ctx context.Context, st *store.Store, inst store.Instance) (InstanceSummary, error) {
	n, err := st.CountEmissions(ctx, inst.ID)
	if err != nil {
		return InstanceSummary{}, err
	}
	return InstanceSummary{
		ID:          inst.ID,
		Module:      inst.Module,
		SpecHash:    inst.SpecHash,
		Emissions:   n,
		Live:        inst.Live(),
		TornDownSeq: inst.TornDownSeq,
	}, nil
}

func showInstance(ctx context.Context, st *store.Store, opts *TraceOptions, formatter *OutputFormatter) error {
	inst, err := st.ReadInstance(ctx, opts.InstanceID)
	if errors.Is(err, store.ErrUnknownInstance) {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("no instance %s in %s", opts.InstanceID, opts.Database), nil)
		return WrapExitError(ExitCommandError, "unknown instance", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read instance", err)
	}

	summary, err := summarize(ctx, st, inst)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count emissions", err)
	}

	emissions, err := st.ReadEmissions(ctx, inst.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read emissions", err)
	}

	timeline, err := st.QueryEmissions(ctx, timelineQuery(inst.ID, opts))
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to query timeline", err)
	}

	snap, err := st.LatestSnapshot(ctx, inst.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read snapshot", err)
	}

	result := TraceResult{
		Instance: summary,
		Timeline: buildTimeline(timeline),
		Snapshot: snapshotMap(snap.Values),
		Version:  snap.Version,
	}
	for _, e := range emissions {
		switch e.Kind {
		case ir.KindInput:
			result.Stats.Inputs++
		case ir.KindFeedback:
			result.Stats.Feedback++
		case ir.KindOutput:
			result.Stats.Outputs++
		}
	}
	result.Stats.TotalEvents = len(emissions)

	if formatter.JSON() {
		return formatter.Success(result)
	}
	outputTraceText(formatter.Writer, result, snap.Values, opts.Verbose)
	return nil
}

// timelineQuery builds the store query for the --channel and --kind flags.
func timelineQuery(instanceID string, opts *TraceOptions) store.EmissionQuery {
	q := store.EmissionQuery{InstanceID: instanceID}
	if opts.Channel != "" {
		q.Channels = []string{opts.Channel}
	}
	if opts.Kind != "" {
		q.Kinds = []ir.EmissionKind{ir.EmissionKind(opts.Kind)}
	}
	return q
}

// buildTimeline converts stored emissions to timeline events.
func buildTimeline(emissions []ir.Emission) []TraceEvent {
	timeline := make([]TraceEvent, 0, len(emissions))
	for _, e := range emissions {
		timeline = append(timeline, TraceEvent{
			Seq:     e.Seq,
			ID:      e.ID,
			Kind:    string(e.Kind),
			Channel: e.Channel,
			Value:   ir.ToGo(e.Value),
		})
	}
	return timeline
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, snapshot ir.Record, verbose bool) {
	fmt.Fprintf(w, "Trace for Instance: %s (%s)\n", result.Instance.ID, result.Instance.Module)
	fmt.Fprintf(w, "Status: %s\n", liveStatus(result.Instance.Live))
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Timeline:")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no emissions)")
	}
	for _, e := range result.Timeline {
		value, _ := ir.FromGo(e.Value)
		fmt.Fprintf(w, "  [%d] %-8s %s = %s", e.Seq, e.Kind, e.Channel, ir.Format(value))
		if verbose {
			fmt.Fprintf(w, "  (%s)", e.ID)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Snapshot (version %d):\n", result.Version)
	for _, key := range snapshot.SortedKeys() {
		fmt.Fprintf(w, "  %s = %s\n", key, ir.Format(snapshot[key]))
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Stats: %d events (%d input, %d feedback, %d output)\n",
		result.Stats.TotalEvents, result.Stats.Inputs, result.Stats.Feedback, result.Stats.Outputs)
}

func liveStatus(live bool) string {
	if live {
		return "live"
	}
	return "torn down"
}
