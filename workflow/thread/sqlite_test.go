package thread

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "threads.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	id, err := store.CreateThread(ctx)
	if err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}

	turn := Turn{Role: "assistant", Content: "Consulted model o3", ToolName: "consensus"}
	if err := turn.EncodeMetadata("consensus_state", map[string]any{
		"initial_prompt": "migrate to gRPC?",
		"total_steps":    3,
	}); err != nil {
		t.Fatalf("EncodeMetadata() error = %v", err)
	}
	if err := store.AddTurn(ctx, id, turn); err != nil {
		t.Fatalf("AddTurn() error = %v", err)
	}
	if err := store.AddTurn(ctx, id, Turn{Role: "user", Content: "continue"}); err != nil {
		t.Fatalf("AddTurn() error = %v", err)
	}

	th, err := store.GetThread(ctx, id)
	if err != nil {
		t.Fatalf("GetThread() error = %v", err)
	}
	if th.ID != id || th.CreatedAt.IsZero() {
		t.Errorf("thread = %+v, want id %q with a timestamp", th, id)
	}
	if len(th.Turns) != 2 {
		t.Fatalf("turn count = %d, want 2", len(th.Turns))
	}
	if th.Turns[0].ToolName != "consensus" || th.Turns[1].Content != "continue" {
		t.Errorf("turns out of insertion order: %+v", th.Turns)
	}

	var state map[string]any
	found, err := th.Turns[0].DecodeMetadata("consensus_state", &state)
	if err != nil || !found {
		t.Fatalf("DecodeMetadata() = (%v, %v), want recovered state", found, err)
	}
	if state["initial_prompt"] != "migrate to gRPC?" {
		t.Errorf("metadata round-trip lost data: %v", state)
	}

	// Metadata-free turns come back with nil metadata
	if th.Turns[1].Metadata != nil {
		t.Errorf("turn without metadata = %v, want nil", th.Turns[1].Metadata)
	}
}

func TestSQLiteStore_NotFound(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if _, err := store.GetThread(ctx, "missing"); !errors.Is(err, ErrThreadNotFound) {
		t.Errorf("GetThread(missing) = %v, want ErrThreadNotFound", err)
	}
	if err := store.AddTurn(ctx, "missing", Turn{Role: "user"}); !errors.Is(err, ErrThreadNotFound) {
		t.Errorf("AddTurn(missing) = %v, want ErrThreadNotFound", err)
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threads.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	id, err := store.CreateThread(ctx)
	if err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}
	if err := store.AddTurn(ctx, id, Turn{Role: "user", Content: "persisted"}); err != nil {
		t.Fatalf("AddTurn() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore(reopen) error = %v", err)
	}
	defer func() { _ = reopened.Close() }()

	th, err := reopened.GetThread(ctx, id)
	if err != nil {
		t.Fatalf("GetThread() after reopen error = %v", err)
	}
	if len(th.Turns) != 1 || th.Turns[0].Content != "persisted" {
		t.Errorf("thread did not survive reopen: %+v", th)
	}
}

func TestSQLiteStore_Close(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	if err := store.Ping(ctx); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	// Idempotent
	if err := store.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, err := store.CreateThread(ctx); err == nil {
		t.Error("CreateThread() after Close should fail")
	}
	if err := store.Ping(ctx); err == nil {
		t.Error("Ping() after Close should fail")
	}
}
