package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/remod/internal/ir"
)

const minimalScenario = `
name: minimal
description: one push
module: Counter
steps:
  - set: increment
assertions:
  - type: final_snapshot
    expect: { displayText: "1" }
`

func TestLoadScenario(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/counter_two_up_one_down.yaml")
	require.NoError(t, err)

	assert.Equal(t, "counter_two_up_one_down", scenario.Name)
	assert.Equal(t, "Counter", scenario.Module)
	assert.Empty(t, scenario.InstanceID)
	require.Len(t, scenario.Steps, 4)
	assert.Equal(t, "increment", scenario.Steps[0].Set)
	assert.Nil(t, scenario.Steps[0].Value)
	assert.Equal(t, 9, scenario.Steps[3].Value)
	assert.Equal(t, "FEEDBACK_SETTER", scenario.Steps[3].ExpectError)
	require.Len(t, scenario.Assertions, 5)
	assert.Equal(t, AssertFinalSnapshot, scenario.Assertions[0].Type)
	assert.Equal(t, map[string]any{"displayText": "1"}, scenario.Assertions[0].Expect)
	assert.Equal(t, 3, scenario.Assertions[1].Count)
	assert.Equal(t, []string{"increment", "currentCount", "displayText"}, scenario.Assertions[3].Channels)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", scenario.Name)
}

func TestParseScenario_RejectsUnknownFields(t *testing.T) {
	_, err := ParseScenario([]byte(minimalScenario + "assertion: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
	assert.Contains(t, err.Error(), "assertion")
}

func TestParseScenario_AssertionValue(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: values
description: value presence
module: Counter
steps:
  - set: increment
assertions:
  - type: emission_contains
    channel: increment
  - type: emission_contains
    channel: increment
    value: null
  - type: emission_contains
    channel: displayText
    value: "1"
`))
	require.NoError(t, err)

	assert.False(t, scenario.Assertions[0].hasValue(), "omitted value matches anything")
	require.True(t, scenario.Assertions[1].hasValue(), "explicit null is a value")
	v, err := scenario.Assertions[1].expectedValue()
	require.NoError(t, err)
	assert.Equal(t, ir.KindNull, v.Kind())
	v, err = scenario.Assertions[2].expectedValue()
	require.NoError(t, err)
	assert.Equal(t, ir.KindString, v.Kind())
}

func TestParseScenario_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "missing name",
			yaml: "description: d\nmodule: Counter\nsteps: [{set: increment}]\nassertions: [{type: setter_absent, channel: x}]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: n\nmodule: Counter\nsteps: [{set: increment}]\nassertions: [{type: setter_absent, channel: x}]\n",
			want: "description is required",
		},
		{
			name: "missing module",
			yaml: "name: n\ndescription: d\nsteps: [{set: increment}]\nassertions: [{type: setter_absent, channel: x}]\n",
			want: "module is required",
		},
		{
			name: "no steps",
			yaml: "name: n\ndescription: d\nmodule: Counter\nassertions: [{type: setter_absent, channel: x}]\n",
			want: "steps list is required",
		},
		{
			name: "no assertions",
			yaml: "name: n\ndescription: d\nmodule: Counter\nsteps: [{set: increment}]\n",
			want: "assertions list is required",
		},
		{
			name: "negative depth",
			yaml: "name: n\ndescription: d\nmodule: Counter\nmax_feedback_depth: -1\nsteps: [{set: increment}]\nassertions: [{type: setter_absent, channel: x}]\n",
			want: "max_feedback_depth must be non-negative",
		},
		{
			name: "empty step",
			yaml: "name: n\ndescription: d\nmodule: Counter\nsteps: [{value: 1}]\nassertions: [{type: setter_absent, channel: x}]\n",
			want: "steps[0]: one of set or close is required",
		},
		{
			name: "set and close",
			yaml: "name: n\ndescription: d\nmodule: Counter\nsteps: [{set: increment, close: true}]\nassertions: [{type: setter_absent, channel: x}]\n",
			want: "steps[0]: set and close are mutually exclusive",
		},
		{
			name: "float value",
			yaml: "name: n\ndescription: d\nmodule: Counter\nsteps: [{set: increment, value: 1.5}]\nassertions: [{type: setter_absent, channel: x}]\n",
			want: "floats are not allowed",
		},
		{
			name: "unknown error code",
			yaml: "name: n\ndescription: d\nmodule: Counter\nsteps: [{set: increment, expect_error: OOPS}]\nassertions: [{type: setter_absent, channel: x}]\n",
			want: `unknown expect_error code "OOPS"`,
		},
		{
			name: "unknown assertion",
			yaml: "name: n\ndescription: d\nmodule: Counter\nsteps: [{set: increment}]\nassertions: [{type: trace_contains}]\n",
			want: `unknown assertion type "trace_contains"`,
		},
		{
			name: "unknown kind",
			yaml: "name: n\ndescription: d\nmodule: Counter\nsteps: [{set: increment}]\nassertions: [{type: emission_count, channel: x, kind: event}]\n",
			want: `unknown kind "event"`,
		},
		{
			name: "final snapshot without expect",
			yaml: "name: n\ndescription: d\nmodule: Counter\nsteps: [{set: increment}]\nassertions: [{type: final_snapshot}]\n",
			want: "expect is required for final_snapshot",
		},
		{
			name: "contains without channel",
			yaml: "name: n\ndescription: d\nmodule: Counter\nsteps: [{set: increment}]\nassertions: [{type: emission_contains}]\n",
			want: "channel is required for emission_contains",
		},
		{
			name: "negative count",
			yaml: "name: n\ndescription: d\nmodule: Counter\nsteps: [{set: increment}]\nassertions: [{type: emission_count, channel: x, count: -1}]\n",
			want: "count must be non-negative",
		},
		{
			name: "order without channels",
			yaml: "name: n\ndescription: d\nmodule: Counter\nsteps: [{set: increment}]\nassertions: [{type: emission_order}]\n",
			want: "channels list is required for emission_order",
		},
		{
			name: "setter absent without channel",
			yaml: "name: n\ndescription: d\nmodule: Counter\nsteps: [{set: increment}]\nassertions: [{type: setter_absent}]\n",
			want: "channel is required for setter_absent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid scenario")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
