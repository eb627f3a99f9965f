package ir

// Version constants for the trace format and engine.
const (
	// IRVersion is the value/trace schema version.
	IRVersion = "1"

	// EngineVersion is the remod engine version.
	EngineVersion = "0.1.0"
)
