package ir

// EmissionKind classifies a trace record by which edge of the dataflow
// graph carried the value.
type EmissionKind string

const (
	// KindInput is an external push through a setter.
	KindInput EmissionKind = "input"
	// KindFeedback is a router push into a feedback channel.
	KindFeedback EmissionKind = "feedback"
	// KindOutput is an aggregator fold into the snapshot.
	KindOutput EmissionKind = "output"
)

// Valid reports whether k is one of the known kinds.
func (k EmissionKind) Valid() bool {
	switch k {
	case KindInput, KindFeedback, KindOutput:
		return true
	}
	return false
}

// Emission is one record of an instance's trace.
type Emission struct {
	ID         string       `json:"id"`
	InstanceID string       `json:"instance_id"`
	Module     string       `json:"module"`
	Channel    string       `json:"channel"`
	Kind       EmissionKind `json:"kind"`
	Value      Value        `json:"value"`
	Seq        int64        `json:"seq"`
}

// Record renders the emission as a Value, for golden traces.
func (e Emission) Record() Record {
	v := e.Value
	if v == nil {
		v = Null{}
	}
	return Record{
		"id":          String(e.ID),
		"instance_id": String(e.InstanceID),
		"module":      String(e.Module),
		"channel":     String(e.Channel),
		"kind":        String(e.Kind),
		"value":       v,
		"seq":         Int(e.Seq),
	}
}
