package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/remod/internal/ir"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s\n", event.Seq, event.Kind, event.Channel, ir.Format(event.Value))
		}
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against result and returns one
// message per failed assertion, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluate(result *Result, a Assertion) error {
	switch a.Type {
	case AssertFinalSnapshot:
		return assertFinalSnapshot(result, a)
	case AssertEmissionContains:
		return assertEmissionContains(result.Trace, a)
	case AssertEmissionCount:
		return assertEmissionCount(result.Trace, a)
	case AssertEmissionOrder:
		return assertEmissionOrder(result.Trace, a)
	case AssertSetterAbsent:
		return assertSetterAbsent(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// matches reports whether event is on the assertion's channel and, when
// the assertion names one, of its kind.
func matches(event TraceEvent, channel, kind string) bool {
	return event.Channel == channel && (kind == "" || string(event.Kind) == kind)
}

func describe(channel, kind string) string {
	if kind == "" {
		return channel
	}
	return kind + " " + channel
}

// assertFinalSnapshot checks that every expected key holds the expected
// value in the final snapshot (subset semantics).
func assertFinalSnapshot(result *Result, a Assertion) error {
	keys := make([]string, 0, len(a.Expect))
	for k := range a.Expect {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, key := range keys {
		want, err := ir.FromGo(a.Expect[key])
		if err != nil {
			return fmt.Errorf("expect.%s: %w", key, err)
		}
		got, exists := result.Snapshot[key]
		if !exists {
			return &AssertionError{
				Type:     AssertFinalSnapshot,
				Expected: fmt.Sprintf("key %q to exist", key),
				Actual:   fmt.Sprintf("snapshot is %s", ir.Format(result.Snapshot)),
			}
		}
		if !ir.Equal(want, got) {
			return &AssertionError{
				Type:     AssertFinalSnapshot,
				Expected: fmt.Sprintf("%s = %s", key, ir.Format(want)),
				Actual:   fmt.Sprintf("%s = %s", key, ir.Format(got)),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

// assertEmissionContains checks that some emission on the channel carries
// the expected value, or any value when the assertion names none.
func assertEmissionContains(trace []TraceEvent, a Assertion) error {
	var want ir.Value
	if a.hasValue() {
		v, err := a.expectedValue()
		if err != nil {
			return fmt.Errorf("value: %w", err)
		}
		want = v
	}

	for _, event := range trace {
		if !matches(event, a.Channel, a.Kind) {
			continue
		}
		if want == nil || ir.Equal(want, event.Value) {
			return nil
		}
	}

	expected := "emission on " + describe(a.Channel, a.Kind)
	if want != nil {
		expected += " with value " + ir.Format(want)
	}
	return &AssertionError{
		Type:     AssertEmissionContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertEmissionCount checks that the channel emitted exactly Count times.
func assertEmissionCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if matches(event, a.Channel, a.Kind) {
			count++
		}
	}

	if count != a.Count {
		return &AssertionError{
			Type:     AssertEmissionCount,
			Expected: fmt.Sprintf("%d emissions on %s", a.Count, describe(a.Channel, a.Kind)),
			Actual:   fmt.Sprintf("%d emissions", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertEmissionOrder checks that the first emission on each channel
// occurs in the listed order. Other emissions may come in between.
func assertEmissionOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int, len(a.Channels))
	for i, event := range trace {
		for _, channel := range a.Channels {
			if positions[channel] == 0 && matches(event, channel, a.Kind) {
				positions[channel] = i + 1 // 1-indexed for readability
			}
		}
	}

	for _, channel := range a.Channels {
		if positions[channel] == 0 {
			return &AssertionError{
				Type:     AssertEmissionOrder,
				Expected: fmt.Sprintf("emissions on all of %v", a.Channels),
				Actual:   fmt.Sprintf("no emission on %s", describe(channel, a.Kind)),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Channels); i++ {
		prev, curr := a.Channels[i-1], a.Channels[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertEmissionOrder,
				Expected: fmt.Sprintf("channels in order: %v", a.Channels),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertSetterAbsent checks that the instance exposes no setter for Channel.
func assertSetterAbsent(result *Result, a Assertion) error {
	if slices.Contains(result.Setters, a.Channel) {
		return &AssertionError{
			Type:     AssertSetterAbsent,
			Expected: fmt.Sprintf("no setter for %s", a.Channel),
			Actual:   fmt.Sprintf("setters are %v", result.Setters),
		}
	}
	return nil
}
