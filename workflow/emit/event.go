package emit

// Event represents an observability event emitted during workflow step processing.
//
// Events provide insight into engine behavior:
//   - Step validation and progression
//   - Findings consolidation and error classification
//   - Consensus panel selection and per-model consultations
//   - Thread store reads/writes
//
// Events are emitted to an Emitter which can:
//   - Log to stdout/stderr or files
//   - Send to OpenTelemetry
//   - Buffer for inspection in tests
type Event struct {
	// ThreadID identifies the conversation thread (continuation id) this
	// event belongs to. Empty for events outside any thread scope.
	ThreadID string

	// Step is the workflow step number that emitted this event (1-indexed).
	// Zero for events not tied to a specific step.
	Step int

	// Tool names the workflow tool that emitted this event
	// (e.g., "codereview", "debug", "consensus").
	Tool string

	// Msg is a short machine-greppable description of the event.
	Msg string

	// Meta contains additional structured data specific to this event.
	// Common keys:
	//   - "error": error details
	//   - "model": model name for consultation events
	//   - "stance": stance for consultation events
	//   - "duration_ms": consultation duration in milliseconds
	//   - "panel": selected consensus panel
	Meta map[string]interface{}
}
