package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestFindScenarios(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "b.yaml", minimalScenario)
	writeScenario(t, dir, "a.yml", minimalScenario)
	writeScenario(t, dir, "notes.txt", "not a scenario")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	paths, err := FindScenarios(dir, "")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.yml"), filepath.Join(dir, "b.yaml")}, paths)

	paths, err = FindScenarios(dir, "b*")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "b.yaml")}, paths)
}

func TestFindScenarios_NoMatch(t *testing.T) {
	dir := t.TempDir()
	writeScenario(t, dir, "a.yaml", minimalScenario)

	_, err := FindScenarios(dir, "zzz*")
	var nse *NoScenariosError
	require.ErrorAs(t, err, &nse)
	assert.Equal(t, "zzz*", nse.Filter)

	_, err = FindScenarios(t.TempDir(), "")
	require.ErrorAs(t, err, &nse)
	assert.Contains(t, err.Error(), "no scenario files in")
}

func TestFindScenarios_BadFilter(t *testing.T) {
	_, err := FindScenarios(t.TempDir(), "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter")
}

func TestRunSuite(t *testing.T) {
	dir := t.TempDir()
	pass := writeScenario(t, dir, "pass.yaml", minimalScenario)
	fail := writeScenario(t, dir, "fail.yaml", `
name: fail
description: wrong expectation
module: Counter
steps:
  - set: increment
assertions:
  - type: final_snapshot
    expect: { displayText: "5" }
`)
	broken := writeScenario(t, dir, "broken.yaml", "name: [")
	unknown := writeScenario(t, dir, "unknown.yaml", `
name: unknown
description: no such module
module: Nope
steps:
  - set: x
assertions:
  - type: setter_absent
    channel: y
`)

	result := RunSuite(context.Background(), []string{pass, fail, broken, unknown})

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 1, result.Passed)
	assert.Equal(t, 3, result.Failed)
	require.Len(t, result.Scenarios, 4)

	assert.True(t, result.Scenarios[0].Pass)
	assert.Equal(t, "minimal", result.Scenarios[0].Scenario)
	require.NotNil(t, result.Scenarios[0].Result)

	failures := result.Failures()
	require.Len(t, failures, 3)

	assert.Equal(t, "fail", failures[0].Scenario)
	assert.NotNil(t, failures[0].Result, "assertion failures still carry the run")
	assert.Contains(t, failures[0].Errors[0], `displayText = "5"`)
	assert.Empty(t, failures[1].Scenario)
	assert.Nil(t, failures[1].Result)
	assert.Contains(t, failures[1].Errors[0], "failed to load scenario")
	assert.Equal(t, unknown, failures[2].Path)
	assert.Contains(t, failures[2].Errors[0], "scenario execution failed")
}

func TestSuiteResult_Fail(t *testing.T) {
	dir := t.TempDir()
	pass := writeScenario(t, dir, "pass.yaml", minimalScenario)

	result := RunSuite(context.Background(), []string{pass})
	require.Equal(t, 1, result.Passed)

	result.Fail(0, "golden mismatch")
	result.Fail(0, "second reason")

	assert.Equal(t, 0, result.Passed)
	assert.Equal(t, 1, result.Failed, "counted once")
	assert.Equal(t, []string{"golden mismatch", "second reason"}, result.Scenarios[0].Errors)
}
