package emit

// NullEmitter implements Emitter by discarding all events.
//
// Use cases:
//   - Deployments where observability overhead is unwanted
//   - Tests that don't assert on emitted events
type NullEmitter struct{}

// NewNullEmitter creates a new NullEmitter.
//
// Returns an emitter that discards all events. Safe for concurrent use,
// zero overhead.
func NewNullEmitter() *NullEmitter {
	return &NullEmitter{}
}

// Emit discards the event without any processing.
func (n *NullEmitter) Emit(event Event) {
	// No-op: discard the event
}
