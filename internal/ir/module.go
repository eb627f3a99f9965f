package ir

import "slices"

// ModuleSpec is the serializable half of a module descriptor: its channel
// name sets and initial snapshot. Name sets keep declaration order.
type ModuleSpec struct {
	Name           string   `json:"name"`
	Purpose        string   `json:"purpose"`
	Input          []string `json:"input"`
	PureFeedback   []string `json:"pure_feedback"`
	OutputFeedback []string `json:"output_feedback"`
	PureOutput     []string `json:"pure_output"`
	Initial        Record   `json:"initial"`
}

// Feedback returns PureFeedback followed by OutputFeedback.
func (s ModuleSpec) Feedback() []string {
	return union(s.PureFeedback, s.OutputFeedback)
}

// Exposed returns the snapshot keys: OutputFeedback followed by PureOutput.
func (s ModuleSpec) Exposed() []string {
	return union(s.OutputFeedback, s.PureOutput)
}

// LogicOutputs returns every name logic must return a stream for.
func (s ModuleSpec) LogicOutputs() []string {
	return union(s.PureFeedback, s.OutputFeedback, s.PureOutput)
}

// Channels returns the names that get a channel at wiring time.
// A name that is both Input and Feedback appears once.
func (s ModuleSpec) Channels() []string {
	return union(s.Input, s.Feedback())
}

// Settable returns Input names that are not feedback-bound.
func (s ModuleSpec) Settable() []string {
	fb := s.Feedback()
	out := make([]string, 0, len(s.Input))
	for _, name := range union(s.Input) {
		if !slices.Contains(fb, name) {
			out = append(out, name)
		}
	}
	return out
}

// IsFeedback reports whether name is routed back into logic.
func (s ModuleSpec) IsFeedback(name string) bool {
	return slices.Contains(s.PureFeedback, name) || slices.Contains(s.OutputFeedback, name)
}

// IsExposed reports whether name is a snapshot key.
func (s ModuleSpec) IsExposed(name string) bool {
	return slices.Contains(s.OutputFeedback, name) || slices.Contains(s.PureOutput, name)
}

// Record renders the spec as a Value, for hashing and JSON output.
func (s ModuleSpec) Record() Record {
	initial := s.Initial
	if initial == nil {
		initial = Record{}
	}
	return Record{
		"name":            String(s.Name),
		"purpose":         String(s.Purpose),
		"input":           nameList(s.Input),
		"pure_feedback":   nameList(s.PureFeedback),
		"output_feedback": nameList(s.OutputFeedback),
		"pure_output":     nameList(s.PureOutput),
		"initial":         initial,
	}
}

// union concatenates name lists, dropping repeats while keeping first position.
func union(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, name := range list {
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	if out == nil {
		return []string{}
	}
	return out
}

func nameList(names []string) List {
	out := make(List, len(names))
	for i, n := range names {
		out[i] = String(n)
	}
	return out
}
