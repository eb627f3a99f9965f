package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/remod/internal/ir"
)

// Validation error codes (E200-E299)
const (
	ErrUnsupportedType = "E200" // unsupported type passed to Validate

	ErrModuleName        = "E201" // module name empty or not an identifier
	ErrPurposeEmpty      = "E202" // purpose is required
	ErrChannelName       = "E203" // channel name not an identifier
	ErrDuplicateName     = "E204" // name repeated within one set
	ErrOverlappingSets   = "E205" // name in more than one output set
	ErrInputPureOutput   = "E206" // input name reused as a pure output
	ErrMissingInitial    = "E207" // exposed output has no initial value
	ErrUnexpectedInitial = "E208" // initial key is not an exposed output
	ErrNoOutputs         = "E209" // module declares no logic outputs
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidationError represents a schema validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// Validate checks a compiled module descriptor against the wiring rules.
// Returns all errors found (does not fail fast).
func Validate(v any) []ValidationError {
	switch spec := v.(type) {
	case *ir.ModuleSpec:
		if spec == nil {
			break
		}
		return validateModuleSpec(spec)
	case ir.ModuleSpec:
		return validateModuleSpec(&spec)
	}
	return []ValidationError{{
		Field:   "type",
		Message: fmt.Sprintf("unsupported type: %T", v),
		Code:    ErrUnsupportedType,
	}}
}

func validateModuleSpec(spec *ir.ModuleSpec) []ValidationError {
	var errs []ValidationError

	// E201
	if !identRe.MatchString(spec.Name) {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("module name %q must be an identifier", spec.Name),
			Code:    ErrModuleName,
		})
	}

	// E202
	if strings.TrimSpace(spec.Purpose) == "" {
		errs = append(errs, ValidationError{
			Field:   "purpose",
			Message: "purpose is required and must be non-empty",
			Code:    ErrPurposeEmpty,
		})
	}

	sets := []struct {
		field string
		names []string
	}{
		{"input", spec.Input},
		{"pure_feedback", spec.PureFeedback},
		{"output_feedback", spec.OutputFeedback},
		{"pure_output", spec.PureOutput},
	}

	// E203, E204
	for _, set := range sets {
		seen := make(map[string]bool)
		for i, name := range set.names {
			field := fmt.Sprintf("%s[%d]", set.field, i)
			if !identRe.MatchString(name) {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("channel name %q must be an identifier", name),
					Code:    ErrChannelName,
				})
			}
			if seen[name] {
				errs = append(errs, ValidationError{
					Field:   field,
					Message: fmt.Sprintf("duplicate channel name %q", name),
					Code:    ErrDuplicateName,
				})
			}
			seen[name] = true
		}
	}

	// E205: the three output sets are pairwise disjoint
	owner := make(map[string]string)
	for _, set := range sets[1:] {
		for i, name := range set.names {
			if prev, ok := owner[name]; ok && prev != set.field {
				errs = append(errs, ValidationError{
					Field:   fmt.Sprintf("%s[%d]", set.field, i),
					Message: fmt.Sprintf("%q is already declared in %s", name, prev),
					Code:    ErrOverlappingSets,
				})
				continue
			}
			owner[name] = set.field
		}
	}

	// E206: an input that logic also writes must be routed as feedback
	for i, name := range spec.Input {
		if owner[name] == "pure_output" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("input[%d]", i),
				Message: fmt.Sprintf("%q is both an input and a pure output; declare it as output_feedback", name),
				Code:    ErrInputPureOutput,
			})
		}
	}

	// E207, E208: initial keys == OutputFeedback ∪ PureOutput
	for _, name := range spec.Exposed() {
		if _, ok := spec.Initial[name]; !ok {
			errs = append(errs, ValidationError{
				Field:   "initial." + name,
				Message: fmt.Sprintf("exposed output %q has no initial value", name),
				Code:    ErrMissingInitial,
			})
		}
	}
	for _, key := range spec.Initial.SortedKeys() {
		if !spec.IsExposed(key) {
			errs = append(errs, ValidationError{
				Field:   "initial." + key,
				Message: fmt.Sprintf("%q is not an output_feedback or pure_output name", key),
				Code:    ErrUnexpectedInitial,
			})
		}
	}

	// E209
	if len(spec.LogicOutputs()) == 0 {
		errs = append(errs, ValidationError{
			Field:   "outputs",
			Message: "module must declare at least one pure_feedback, output_feedback or pure_output name",
			Code:    ErrNoOutputs,
		})
	}

	return errs
}
