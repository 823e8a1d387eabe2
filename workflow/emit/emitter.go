// Package emit provides pluggable observability for the workflow engine.
package emit

// Emitter receives and processes observability events from workflow execution.
//
// Emitters enable pluggable observability backends:
//   - Logging: stdout, files, syslog
//   - Distributed tracing: OpenTelemetry
//   - Test inspection: buffered capture
//
// Implementations should be:
//   - Non-blocking: avoid slowing down step processing
//   - Thread-safe: may be called concurrently from independent tool calls
//   - Resilient: handle backend failures without crashing the workflow
type Emitter interface {
	// Emit sends an observability event to the configured backend.
	//
	// Emit must not panic. Errors should be handled internally; the
	// engine never inspects the outcome of an emit.
	Emit(event Event)
}
