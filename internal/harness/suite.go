package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// NoScenariosError is returned when a directory holds no scenario files
// matching the filter.
type NoScenariosError struct {
	Dir    string
	Filter string
}

// Error implements the error interface.
func (e *NoScenariosError) Error() string {
	if e.Filter == "" {
		return fmt.Sprintf("no scenario files in %s", e.Dir)
	}
	return fmt.Sprintf("no scenario files in %s match %q", e.Dir, e.Filter)
}

// SuiteResult summarizes a run over many scenario files.
type SuiteResult struct {
	Total     int               `json:"total"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Scenarios []ScenarioOutcome `json:"scenarios"`
}

// ScenarioOutcome is the result of one scenario file.
type ScenarioOutcome struct {
	Scenario string   `json:"scenario,omitempty"`
	Path     string   `json:"path"`
	Pass     bool     `json:"pass"`
	Errors   []string `json:"errors,omitempty"`

	// Result is nil when the scenario could not be loaded or run.
	Result *Result `json:"-"`
}

// Failures returns the outcomes that did not pass.
func (r *SuiteResult) Failures() []ScenarioOutcome {
	var out []ScenarioOutcome
	for _, o := range r.Scenarios {
		if !o.Pass {
			out = append(out, o)
		}
	}
	return out
}

// Fail marks the outcome at index i failed with msg and updates the counts.
func (r *SuiteResult) Fail(i int, msg string) {
	o := &r.Scenarios[i]
	if o.Pass {
		o.Pass = false
		r.Passed--
		r.Failed++
	}
	o.Errors = append(o.Errors, msg)
}

// FindScenarios lists the .yaml and .yml files directly in dir, sorted.
// A non-empty filter is a filepath.Match glob applied to the file name
// without its extension.
func FindScenarios(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			if ok, _ := filepath.Match(filter, strings.TrimSuffix(name, ext)); !ok {
				continue
			}
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	slices.Sort(paths)

	if len(paths) == 0 {
		return nil, &NoScenariosError{Dir: dir, Filter: filter}
	}
	return paths, nil
}

// RunSuite loads and runs every scenario file in paths. Load and run
// failures count as failed scenarios; RunSuite itself does not fail.
func RunSuite(ctx context.Context, paths []string) *SuiteResult {
	result := &SuiteResult{Scenarios: make([]ScenarioOutcome, 0, len(paths))}

	for _, path := range paths {
		outcome := runFile(ctx, path)
		result.Total++
		if outcome.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, outcome)
	}

	return result
}

func runFile(ctx context.Context, path string) ScenarioOutcome {
	scenario, err := LoadScenario(path)
	if err != nil {
		return ScenarioOutcome{Path: path, Errors: []string{fmt.Sprintf("failed to load scenario: %v", err)}}
	}

	outcome := ScenarioOutcome{Scenario: scenario.Name, Path: path}
	result, err := RunContext(ctx, scenario)
	if err != nil {
		outcome.Errors = []string{fmt.Sprintf("scenario execution failed: %v", err)}
		return outcome
	}

	outcome.Result = result
	outcome.Pass = result.Pass
	outcome.Errors = result.Errors
	return outcome
}
