package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/remod/internal/engine"
	"github.com/roach88/remod/internal/ir"
	"github.com/roach88/remod/internal/modules"
)

// ModuleInfo describes one built-in module.
type ModuleInfo struct {
	Name           string         `json:"name"`
	Purpose        string         `json:"purpose"`
	SpecHash       string         `json:"spec_hash"`
	Input          []string       `json:"input"`
	PureFeedback   []string       `json:"pure_feedback"`
	OutputFeedback []string       `json:"output_feedback"`
	PureOutput     []string       `json:"pure_output"`
	Setters        []string       `json:"setters"`
	Initial        map[string]any `json:"initial"`
}

// NewModulesCommand creates the modules command.
func NewModulesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List built-in modules",
		Long: `List the built-in modules with their channel sets and the setter
each settable input gets.

Examples:
  remod modules
  remod modules --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModules(rootOpts, cmd)
		},
	}
}

func runModules(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	var infos []ModuleInfo
	for _, spec := range modules.Specs() {
		info, err := describeModule(spec)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to describe "+spec.Name, err)
		}
		infos = append(infos, info)
	}

	if formatter.JSON() {
		return formatter.Success(infos)
	}

	w := formatter.Writer
	for i, info := range infos {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s - %s\n", info.Name, info.Purpose)
		writeNames(w, "input", info.Input)
		writeNames(w, "pure_feedback", info.PureFeedback)
		writeNames(w, "output_feedback", info.OutputFeedback)
		writeNames(w, "pure_output", info.PureOutput)
		writeNames(w, "setters", info.Setters)
	}
	return nil
}

func describeModule(spec ir.ModuleSpec) (ModuleInfo, error) {
	hash, err := ir.SpecHash(spec)
	if err != nil {
		return ModuleInfo{}, err
	}

	settable := spec.Settable()
	setters := make([]string, len(settable))
	for i, name := range settable {
		setters[i] = engine.SetterName(name)
	}

	initial, _ := ir.ToGo(spec.Initial).(map[string]any)
	return ModuleInfo{
		Name:           spec.Name,
		Purpose:        spec.Purpose,
		SpecHash:       hash,
		Input:          nonNil(spec.Input),
		PureFeedback:   nonNil(spec.PureFeedback),
		OutputFeedback: nonNil(spec.OutputFeedback),
		PureOutput:     nonNil(spec.PureOutput),
		Setters:        setters,
		Initial:        initial,
	}, nil
}

func writeNames(w io.Writer, label string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Fprintf(w, "  %-16s %s\n", label+":", strings.Join(names, ", "))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
