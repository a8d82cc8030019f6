package ir

// Version constants for the journal schema and engine.
const (
	// SchemaVersion is the receipt/journal schema version.
	SchemaVersion = "1"

	// EngineVersion is the idauction engine version.
	EngineVersion = "0.1.0"
)
