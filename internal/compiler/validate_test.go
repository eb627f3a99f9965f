package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remod/internal/ir"
)

func validSpec() ir.ModuleSpec {
	return ir.ModuleSpec{
		Name:           "Loop",
		Purpose:        "x feeds back, y is derived",
		Input:          []string{"tick"},
		OutputFeedback: []string{"x"},
		PureOutput:     []string{"y"},
		Initial:        ir.Record{"x": ir.Int(0), "y": ir.Int(0)},
	}
}

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidateValidSpec(t *testing.T) {
	spec := validSpec()
	assert.Empty(t, Validate(spec))
	assert.Empty(t, Validate(&spec))
}

func TestValidateUnsupportedType(t *testing.T) {
	errs := Validate("not a spec")
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnsupportedType, errs[0].Code)

	var nilSpec *ir.ModuleSpec
	assert.Equal(t, []string{ErrUnsupportedType}, codes(Validate(nilSpec)))
}

func TestValidateRules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ir.ModuleSpec)
		want   []string
	}{
		{"empty name", func(s *ir.ModuleSpec) { s.Name = "" }, []string{ErrModuleName}},
		{"bad name", func(s *ir.ModuleSpec) { s.Name = "my-module" }, []string{ErrModuleName}},
		{"empty purpose", func(s *ir.ModuleSpec) { s.Purpose = "  " }, []string{ErrPurposeEmpty}},
		{"bad channel", func(s *ir.ModuleSpec) { s.Input = []string{"on click"} }, []string{ErrChannelName}},
		{"duplicate input", func(s *ir.ModuleSpec) { s.Input = []string{"tick", "tick"} }, []string{ErrDuplicateName}},
		{
			"overlapping output sets",
			func(s *ir.ModuleSpec) { s.PureFeedback = []string{"x"} },
			[]string{ErrOverlappingSets},
		},
		{
			"input as pure output",
			func(s *ir.ModuleSpec) { s.Input = []string{"tick", "y"} },
			[]string{ErrInputPureOutput},
		},
		{
			"missing initial",
			func(s *ir.ModuleSpec) { delete(s.Initial, "y") },
			[]string{ErrMissingInitial},
		},
		{
			"unexpected initial",
			func(s *ir.ModuleSpec) { s.Initial["z"] = ir.Int(1) },
			[]string{ErrUnexpectedInitial},
		},
		{
			"pure feedback in initial",
			func(s *ir.ModuleSpec) {
				s.PureFeedback = []string{"hidden"}
				s.Initial["hidden"] = ir.Int(0)
			},
			[]string{ErrUnexpectedInitial},
		},
		{
			"no outputs",
			func(s *ir.ModuleSpec) {
				s.OutputFeedback = nil
				s.PureOutput = nil
				s.Initial = ir.Record{}
			},
			[]string{ErrNoOutputs},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := validSpec()
			spec.Initial = ir.Clone(spec.Initial).(ir.Record)
			tt.mutate(&spec)
			assert.Equal(t, tt.want, codes(Validate(&spec)))
		})
	}
}

func TestValidateInputMayBeFeedback(t *testing.T) {
	spec := validSpec()
	spec.Input = []string{"tick", "x"}
	assert.Empty(t, Validate(spec), "an input shared with a feedback name gets one channel and no setter")
}

func TestValidateCollectsAllErrors(t *testing.T) {
	spec := ir.ModuleSpec{
		Name:       "",
		Purpose:    "",
		PureOutput: []string{"out"},
		Initial:    ir.Record{"stray": ir.Int(1)},
	}
	assert.Equal(t, []string{ErrModuleName, ErrPurposeEmpty, ErrMissingInitial, ErrUnexpectedInitial}, codes(Validate(spec)))
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "initial.y", Message: "missing", Code: ErrMissingInitial}
	assert.Equal(t, "[E207] initial.y: missing", e.Error())

	e.Line = 4
	assert.Equal(t, "[E207] line 4: initial.y: missing", e.Error())
}
