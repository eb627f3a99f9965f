package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/remod/internal/ir"
)

// GoldenDir is where golden traces live, relative to the test's package.
const GoldenDir = "testdata/golden"

// TraceSnapshot captures the complete trace for a scenario execution.
type TraceSnapshot struct {
	ScenarioName string
	Module       string
	InstanceID   string
	Trace        []TraceEvent
	Snapshot     ir.Record
}

// Record renders the snapshot as a Value so it can be serialized with
// ir.MarshalCanonical.
func (s *TraceSnapshot) Record() ir.Record {
	trace := make(ir.List, len(s.Trace))
	for i, event := range s.Trace {
		trace[i] = event.Record()
	}
	snapshot := s.Snapshot
	if snapshot == nil {
		snapshot = ir.Record{}
	}
	return ir.Record{
		"scenario_name": ir.String(s.ScenarioName),
		"module":        ir.String(s.Module),
		"instance_id":   ir.String(s.InstanceID),
		"trace":         trace,
		"snapshot":      snapshot,
	}
}

// Canonical returns the canonical JSON of the snapshot.
func (s *TraceSnapshot) Canonical() ([]byte, error) {
	return ir.MarshalCanonical(s.Record())
}

// RunWithGolden executes a scenario and compares the trace against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the run's result; a golden mismatch fails t through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// GoldenTrace returns the canonical trace of result as stored in golden files.
func GoldenTrace(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Module:       result.Module,
		InstanceID:   result.InstanceID,
		Trace:        result.Trace,
		Snapshot:     result.Snapshot,
	}
	return snapshot.Canonical()
}

// AssertGolden compares an already computed result against the golden
// file for scenarioName.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := GoldenTrace(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
