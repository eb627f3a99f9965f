package compiler

import (
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remod/internal/ir"
)

func compileOne(t *testing.T, src, path string) (*ir.ModuleSpec, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename("test.cue"))
	require.NoError(t, v.Err())
	return CompileModule(v.LookupPath(cue.ParsePath(path)))
}

func TestCompileModuleBasic(t *testing.T) {
	spec, err := compileOne(t, `
		module: Counter: {
			purpose: "Counts increments and decrements"
			input: ["increment", "decrement"]
			pure_feedback: ["currentCount"]
			pure_output: ["displayText"]
			initial: { displayText: "0" }
		}
	`, "module.Counter")
	require.NoError(t, err)

	assert.Equal(t, "Counter", spec.Name)
	assert.Equal(t, "Counts increments and decrements", spec.Purpose)
	assert.Equal(t, []string{"increment", "decrement"}, spec.Input)
	assert.Equal(t, []string{"currentCount"}, spec.PureFeedback)
	assert.Equal(t, []string{}, spec.OutputFeedback)
	assert.Equal(t, []string{"displayText"}, spec.PureOutput)
	assert.Equal(t, ir.Record{"displayText": ir.String("0")}, spec.Initial)
}

func TestCompileModuleInitialValues(t *testing.T) {
	spec, err := compileOne(t, `
		module: Slider: {
			purpose: "p"
			pure_output: ["a", "b", "c", "d", "e"]
			initial: {
				a: 0
				b: true
				c: null
				d: [1, "two"]
				e: { nested: -3 }
			}
		}
	`, "module.Slider")
	require.NoError(t, err)

	assert.True(t, ir.Equal(ir.Record{
		"a": ir.Int(0),
		"b": ir.Bool(true),
		"c": ir.Null{},
		"d": ir.List{ir.Int(1), ir.String("two")},
		"e": ir.Record{"nested": ir.Int(-3)},
	}, spec.Initial))
}

func TestCompileModuleMissingPurpose(t *testing.T) {
	_, err := compileOne(t, `module: Bad: { pure_output: ["x"] }`, "module.Bad")

	require.Error(t, err)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "purpose", cerr.Field)
	assert.Contains(t, err.Error(), "required")
}

func TestCompileModuleRejectsFloatInitial(t *testing.T) {
	_, err := compileOne(t, `
		module: Progress: {
			purpose: "p"
			pure_output: ["progress"]
			initial: { progress: 0.5 }
		}
	`, "module.Progress")

	require.Error(t, err)
	var cerr *CompileError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "initial.progress", cerr.Field)
	assert.Contains(t, cerr.Message, "float")
	assert.True(t, cerr.Pos.IsValid(), "errors carry CUE source positions")
	assert.Contains(t, err.Error(), "test.cue:")
}

func TestCompileModuleRejectsNonStringNames(t *testing.T) {
	_, err := compileOne(t, `
		module: Bad: {
			purpose: "p"
			input: [1, 2]
		}
	`, "module.Bad")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "input")
}

func TestCompileModuleRejectsNonListNames(t *testing.T) {
	_, err := compileOne(t, `
		module: Bad: {
			purpose: "p"
			input: "tick"
		}
	`, "module.Bad")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list")
}

func TestCompileModuleRejectsNonConcreteInitial(t *testing.T) {
	_, err := compileOne(t, `
		module: Bad: {
			purpose: "p"
			pure_output: ["x"]
			initial: { x: string }
		}
	`, "module.Bad")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "concrete")
}

func TestCompileModulesCollectsErrors(t *testing.T) {
	specs, errs := CompileSource("mods.cue", []byte(`
		module: Good: {
			purpose: "fine"
			pure_output: ["x"]
			initial: { x: 1 }
		}
		module: Bad: {
			pure_output: ["y"]
		}
	`))

	require.Len(t, specs, 1)
	assert.Equal(t, "Good", specs[0].Name)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "module.Bad")
}

func TestCompileSourceSyntaxError(t *testing.T) {
	_, errs := CompileSource("broken.cue", []byte(`module: X: {`))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "broken.cue")
}

func TestCompileSourceNoModules(t *testing.T) {
	specs, errs := CompileSource("empty.cue", []byte(`other: 1`))
	assert.Empty(t, specs)
	assert.Empty(t, errs)
}
