package schema

// Version constants for the event schema.
const (
	// SchemaVersion is the provenance record schema version.
	SchemaVersion = "1"

	// ClientVersion identifies the instrumenting client.
	ClientVersion = "0.1.0"
)
