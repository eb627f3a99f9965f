// Package harness provides conformance testing for reactive modules.
//
// A scenario wires one built-in module, pushes values through its
// setters and asserts on the emissions the engine recorded and on the
// final snapshot.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: counter_two_up_one_down
//	description: "increment twice then decrement once"
//	module: Counter
//	instance_id: test-instance-001   # optional
//	steps:
//	  - set: increment
//	  - set: increment
//	  - set: decrement
//	  - set: currentCount
//	    value: 9
//	    expect_error: FEEDBACK_SETTER
//	  - close: true
//	assertions:
//	  - type: final_snapshot
//	    expect: { displayText: "1" }
//	  - type: emission_count
//	    channel: currentCount
//	    kind: feedback
//	    count: 3
//
// # Assertion Types
//
//   - final_snapshot: listed keys hold the listed values (subset match)
//   - emission_contains: some emission on channel (of kind) carries value
//   - emission_count: channel (of kind) emitted exactly count times
//   - emission_order: first emissions on channels occur in order
//   - setter_absent: the instance exposes no setter for channel
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory trace store, a logical clock starting
// at 1 and a fixed instance ID, so a scenario always records the same
// trace. Assertions are evaluated against the trace as read back from
// the store, not against what the engine reported in memory.
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/counter.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
