package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/remod/internal/ir"
)

// Name-set fields of a module descriptor, in declaration order.
var nameSetFields = []string{"input", "pure_feedback", "output_feedback", "pure_output"}

// CompileModule parses a CUE value into a ModuleSpec.
// Uses the CUE SDK's Go API directly (not a CLI subprocess).
//
// The value should be the module struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`module: Counter: { ... }`)
//	spec, err := CompileModule(v.LookupPath(cue.ParsePath("module.Counter")))
func CompileModule(v cue.Value) (*ir.ModuleSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ir.ModuleSpec{}

	// Module name comes from the struct label
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	purposeVal := v.LookupPath(cue.ParsePath("purpose"))
	if !purposeVal.Exists() {
		return nil, &CompileError{
			Field:   "purpose",
			Message: "purpose is required",
			Pos:     v.Pos(),
		}
	}
	purpose, err := purposeVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Purpose = purpose

	sets := make(map[string][]string, len(nameSetFields))
	for _, field := range nameSetFields {
		names, err := parseNames(v, field)
		if err != nil {
			return nil, err
		}
		sets[field] = names
	}
	spec.Input = sets["input"]
	spec.PureFeedback = sets["pure_feedback"]
	spec.OutputFeedback = sets["output_feedback"]
	spec.PureOutput = sets["pure_output"]

	spec.Initial = ir.Record{}
	initialVal := v.LookupPath(cue.ParsePath("initial"))
	if initialVal.Exists() {
		initial, err := parseValue(initialVal, "initial")
		if err != nil {
			return nil, err
		}
		rec, ok := initial.(ir.Record)
		if !ok {
			return nil, &CompileError{
				Field:   "initial",
				Message: fmt.Sprintf("initial must be a struct, got %s", initial.Kind()),
				Pos:     initialVal.Pos(),
			}
		}
		spec.Initial = rec
	}

	return spec, nil
}

// CompileModules compiles every field of the top-level `module` struct.
// Errors are collected per module; a module that fails to compile is skipped.
func CompileModules(root cue.Value) ([]*ir.ModuleSpec, []error) {
	modulesVal := root.LookupPath(cue.ParsePath("module"))
	if !modulesVal.Exists() {
		return nil, nil
	}

	iter, err := modulesVal.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var (
		specs []*ir.ModuleSpec
		errs  []error
	)
	for iter.Next() {
		spec, err := CompileModule(iter.Value())
		if err != nil {
			errs = append(errs, fmt.Errorf("module.%s: %w", iter.Label(), err))
			continue
		}
		specs = append(specs, spec)
	}
	return specs, errs
}

// CompileSource compiles CUE source text and returns its modules.
// filename is used only for error positions.
func CompileSource(filename string, src []byte) ([]*ir.ModuleSpec, []error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, []error{formatCUEError(err)}
	}
	return CompileModules(v)
}

// parseNames reads an optional list of strings. Missing means empty.
func parseNames(v cue.Value, field string) ([]string, error) {
	names := []string{}

	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return names, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: "must be a list of channel names",
			Pos:     listVal.Pos(),
		}
	}
	for iter.Next() {
		name, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   field,
				Message: "channel names must be strings",
				Pos:     iter.Value().Pos(),
			}
		}
		names = append(names, name)
	}
	return names, nil
}

// parseValue converts a concrete CUE value to an ir.Value.
// Floats are rejected: fractions must be fixed-point ints.
func parseValue(v cue.Value, field string) (ir.Value, error) {
	switch v.Kind() {
	case cue.NullKind:
		return ir.Null{}, nil
	case cue.StringKind:
		s, err := v.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.String(s), nil
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return ir.Int(n), nil
	case cue.BoolKind:
		b, err := v.Bool()
		if err != nil {
			return nil, formatCUEError(err)
		}
		return ir.Bool(b), nil
	case cue.ListKind:
		iter, err := v.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := ir.List{}
		for i := 0; iter.Next(); i++ {
			elem, err := parseValue(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
			if err != nil {
				return nil, err
			}
			out = append(out, elem)
		}
		return out, nil
	case cue.StructKind:
		iter, err := v.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out := ir.Record{}
		for iter.Next() {
			key := iter.Label()
			elem, err := parseValue(iter.Value(), field+"."+key)
			if err != nil {
				return nil, err
			}
			out[key] = elem
		}
		return out, nil
	case cue.FloatKind, cue.NumberKind:
		return nil, &CompileError{
			Field:   field,
			Message: "float values are forbidden - use a fixed-point int instead",
			Pos:     v.Pos(),
		}
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("value must be concrete, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := errors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
