package thread

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory implementation of Store.
//
// Designed for:
//   - Testing and development
//   - Single-process deployments
//   - Short-lived sessions where persistence isn't required
//
// MemStore is thread-safe and supports concurrent access.
//
// Limitations:
//   - Data is lost when the process terminates
//   - Not suitable for distributed deployments
//
// For durable storage use SQLiteStore or MySQLStore.
type MemStore struct {
	mu      sync.RWMutex
	threads map[string]*Thread
}

// NewMemStore creates a new in-memory thread store.
//
// Example:
//
//	store := thread.NewMemStore()
//	id, _ := store.CreateThread(ctx)
func NewMemStore() *MemStore {
	return &MemStore{
		threads: make(map[string]*Thread),
	}
}

// CreateThread creates a new empty thread with a generated UUID.
func (m *MemStore) CreateThread(_ context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.NewString()
	m.threads[id] = &Thread{
		ID:        id,
		CreatedAt: time.Now().UTC(),
	}
	return id, nil
}

// GetThread retrieves a thread by ID.
//
// Returns a deep copy so callers cannot mutate stored history.
func (m *MemStore) GetThread(_ context.Context, id string) (*Thread, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.threads[id]
	if !ok {
		return nil, ErrThreadNotFound
	}

	out := &Thread{
		ID:        t.ID,
		CreatedAt: t.CreatedAt,
		Turns:     make([]Turn, len(t.Turns)),
	}
	copy(out.Turns, t.Turns)
	return out, nil
}

// AddTurn appends a turn to an existing thread.
//
// A zero CreatedAt is filled in with the current time.
func (m *MemStore) AddTurn(_ context.Context, id string, turn Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.threads[id]
	if !ok {
		return ErrThreadNotFound
	}

	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now().UTC()
	}
	t.Turns = append(t.Turns, turn)
	return nil
}
