package emit

import "sync"

// BufferedEmitter implements Emitter by collecting events in memory.
//
// Intended for tests and for batch forwarding: assertions can inspect
// exactly which events the engine emitted and in what order.
//
// Example:
//
//	buf := emit.NewBufferedEmitter()
//	orch := consensus.New(reg, threads, consensus.WithEmitter(buf))
//	// ... run a step ...
//	events := buf.Events()
type BufferedEmitter struct {
	mu     sync.Mutex
	events []Event
}

// NewBufferedEmitter creates a new BufferedEmitter with an empty buffer.
func NewBufferedEmitter() *BufferedEmitter {
	return &BufferedEmitter{}
}

// Emit appends the event to the in-memory buffer. Thread-safe.
func (b *BufferedEmitter) Emit(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

// Events returns a copy of all buffered events in emission order.
func (b *BufferedEmitter) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Event, len(b.events))
	copy(out, b.events)
	return out
}

// Reset discards all buffered events.
func (b *BufferedEmitter) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}
