// Package thread provides conversation memory for multi-step workflows.
//
// A thread is an ordered sequence of turns. Each turn records who spoke
// (role), what was said (content), which tool produced it, and arbitrary
// structured metadata. Workflow engines persist resumable state inside turn
// metadata so that a later invocation in the same thread can pick up where
// the previous one stopped.
//
// Store is the persistence contract. The in-memory implementation suits
// tests and single-process use; SQLite and MySQL implementations provide
// durable storage.
package thread

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrThreadNotFound is returned when a thread ID does not exist in the store.
var ErrThreadNotFound = errors.New("thread not found")

// Turn is one entry in a conversation thread.
type Turn struct {
	// Role identifies the speaker, typically "user" or "assistant".
	Role string `json:"role"`

	// Content is the turn text.
	Content string `json:"content"`

	// ToolName names the tool that produced this turn, if any.
	ToolName string `json:"tool_name,omitempty"`

	// Metadata holds structured data attached to the turn. Values are
	// stored as raw JSON so callers can round-trip their own types.
	Metadata map[string]json.RawMessage `json:"metadata,omitempty"`

	// CreatedAt is when the turn was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// Thread is an ordered conversation history.
type Thread struct {
	// ID uniquely identifies the thread.
	ID string `json:"id"`

	// Turns are ordered oldest first.
	Turns []Turn `json:"turns"`

	// CreatedAt is when the thread was created.
	CreatedAt time.Time `json:"created_at"`
}

// Store persists conversation threads.
//
// Implementations must be safe for concurrent use. All operations accept a
// context for cancellation; the in-memory implementation ignores it.
type Store interface {
	// CreateThread creates a new empty thread and returns its ID.
	CreateThread(ctx context.Context) (string, error)

	// GetThread retrieves a thread by ID.
	// Returns ErrThreadNotFound if the ID is unknown.
	GetThread(ctx context.Context, id string) (*Thread, error)

	// AddTurn appends a turn to an existing thread.
	// Returns ErrThreadNotFound if the ID is unknown.
	AddTurn(ctx context.Context, id string, turn Turn) error
}

// EncodeMetadata marshals v and stores it under key in the turn's metadata,
// allocating the map if needed.
func (t *Turn) EncodeMetadata(key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata %q: %w", key, err)
	}
	if t.Metadata == nil {
		t.Metadata = make(map[string]json.RawMessage)
	}
	t.Metadata[key] = data
	return nil
}

// DecodeMetadata unmarshals the metadata stored under key into v.
//
// Returns (false, nil) if the key is absent, (true, nil) on success.
func (t *Turn) DecodeMetadata(key string, v interface{}) (bool, error) {
	raw, ok := t.Metadata[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal metadata %q: %w", key, err)
	}
	return true, nil
}
