package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/remod/internal/engine"
	"github.com/roach88/remod/internal/ir"
)

// Scenario defines a conformance test scenario: a module, the pushes to
// drive it with, and what the resulting trace and snapshot must show.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Module names a built-in module, matched without regard to case.
	Module string `yaml:"module"`

	// InstanceID is an optional fixed instance ID.
	// If empty, defaults to "test-instance-001" so golden traces are stable.
	InstanceID string `yaml:"instance_id,omitempty"`

	// MaxFeedbackDepth overrides the engine's feedback depth limit when positive.
	MaxFeedbackDepth int `yaml:"max_feedback_depth,omitempty"`

	// Steps run in order against one wired instance.
	Steps []Step `yaml:"steps"`

	// Assertions validate the recorded trace and final snapshot.
	// Supported types: final_snapshot, emission_contains, emission_count,
	// emission_order, setter_absent
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one action against the instance: a push through a setter, or Close.
type Step struct {
	// Set is the input name to push into.
	Set string `yaml:"set,omitempty"`

	// Value is the pushed value. Omitted means null, as for a click.
	Value any `yaml:"value,omitempty"`

	// Close tears the instance down instead of pushing.
	Close bool `yaml:"close,omitempty"`

	// ExpectError is the runtime error code the push must fail with,
	// e.g. FEEDBACK_SETTER or TORN_DOWN. Empty means the push must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Assertion validates the trace or the final snapshot.
type Assertion struct {
	// Type specifies the assertion type:
	// - "final_snapshot": every key in Expect has that value in the last snapshot
	// - "emission_contains": some emission on Channel (of Kind) carries Value
	// - "emission_count": Channel (of Kind) emitted exactly Count times
	// - "emission_order": the first emissions on Channels occur in that order
	// - "setter_absent": the instance has no setter for Channel
	Type string `yaml:"type"`

	// Channel is the channel name (emission_contains, emission_count, setter_absent).
	Channel string `yaml:"channel,omitempty"`

	// Kind optionally restricts emission assertions to input, feedback or output.
	Kind string `yaml:"kind,omitempty"`

	// Value is the expected emitted value (emission_contains). When absent,
	// any value matches; an explicit null only matches null.
	Value yaml.Node `yaml:"value,omitempty"`

	// Expect contains expected snapshot values (final_snapshot).
	// Subset match: only listed keys are checked.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of emissions (emission_count).
	Count int `yaml:"count,omitempty"`

	// Channels is the expected channel order (emission_order).
	Channels []string `yaml:"channels,omitempty"`
}

// Assertion type constants.
const (
	AssertFinalSnapshot    = "final_snapshot"
	AssertEmissionContains = "emission_contains"
	AssertEmissionCount    = "emission_count"
	AssertEmissionOrder    = "emission_order"
	AssertSetterAbsent     = "setter_absent"
)

// hasValue reports whether the assertion names a value to match.
func (a *Assertion) hasValue() bool {
	return a.Value.Kind != 0
}

// expectedValue decodes Value into an ir.Value.
func (a *Assertion) expectedValue() (ir.Value, error) {
	var raw any
	if err := a.Value.Decode(&raw); err != nil {
		return nil, err
	}
	return ir.FromGo(raw)
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Module == "" {
		return fmt.Errorf("module is required")
	}

	if s.MaxFeedbackDepth < 0 {
		return fmt.Errorf("max_feedback_depth must be non-negative")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, st *Step) error {
	switch {
	case st.Set == "" && !st.Close:
		return fmt.Errorf("steps[%d]: one of set or close is required", index)
	case st.Set != "" && st.Close:
		return fmt.Errorf("steps[%d]: set and close are mutually exclusive", index)
	case st.Close && st.Value != nil:
		return fmt.Errorf("steps[%d]: close takes no value", index)
	}
	if _, err := ir.FromGo(st.Value); err != nil {
		return fmt.Errorf("steps[%d].value: %w", index, err)
	}
	if st.ExpectError != "" && !knownCode(st.ExpectError) {
		return fmt.Errorf("steps[%d]: unknown expect_error code %q", index, st.ExpectError)
	}
	return nil
}

func knownCode(code string) bool {
	switch engine.RuntimeErrorCode(code) {
	case engine.ErrCodeFeedbackLoop,
		engine.ErrCodeFeedbackSetter,
		engine.ErrCodeUnknownChannel,
		engine.ErrCodeTornDown:
		return true
	}
	return false
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	if a.Kind != "" && !ir.EmissionKind(a.Kind).Valid() {
		return fmt.Errorf("assertions[%d]: unknown kind %q", index, a.Kind)
	}

	switch a.Type {
	case AssertFinalSnapshot:
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for final_snapshot", index)
		}
		for key, v := range a.Expect {
			if _, err := ir.FromGo(v); err != nil {
				return fmt.Errorf("assertions[%d].expect.%s: %w", index, key, err)
			}
		}
	case AssertEmissionContains:
		if a.Channel == "" {
			return fmt.Errorf("assertions[%d]: channel is required for emission_contains", index)
		}
		if a.hasValue() {
			if _, err := a.expectedValue(); err != nil {
				return fmt.Errorf("assertions[%d].value: %w", index, err)
			}
		}
	case AssertEmissionCount:
		if a.Channel == "" {
			return fmt.Errorf("assertions[%d]: channel is required for emission_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for emission_count", index)
		}
	case AssertEmissionOrder:
		if len(a.Channels) == 0 {
			return fmt.Errorf("assertions[%d]: channels list is required for emission_order", index)
		}
	case AssertSetterAbsent:
		if a.Channel == "" {
			return fmt.Errorf("assertions[%d]: channel is required for setter_absent", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
