package consensus

import (
	"context"
	"testing"

	"github.com/dougzen/zenflow/workflow"
	"github.com/dougzen/zenflow/workflow/thread"
)

func TestSaveLoadState_RoundTrip(t *testing.T) {
	store := thread.NewMemStore()
	ctx := context.Background()

	id, err := store.CreateThread(ctx)
	if err != nil {
		t.Fatalf("CreateThread() error = %v", err)
	}

	state := &State{
		InitialPrompt: "Adopt event sourcing?",
		ModelsToConsult: []workflow.ModelConfig{
			{Model: "o3", Stance: "for"},
			{Model: "grok-4", Stance: "against"},
		},
		AccumulatedResponses: []ModelResponse{
			{Model: "o3", Stance: "for", Status: "success", Verdict: "yes"},
		},
		TotalSteps: 2,
	}

	if err := SaveState(ctx, store, id, state, "Consulted model o3 with stance for"); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	got, err := LoadState(ctx, store, id)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if got == nil {
		t.Fatal("LoadState() = nil, want saved state")
	}
	if got.InitialPrompt != state.InitialPrompt || got.TotalSteps != 2 {
		t.Errorf("loaded state = %+v", got)
	}
	if len(got.ModelsToConsult) != 2 || got.ModelsToConsult[1].Model != "grok-4" {
		t.Errorf("models_to_consult = %v", got.ModelsToConsult)
	}
	if len(got.AccumulatedResponses) != 1 || got.AccumulatedResponses[0].Verdict != "yes" {
		t.Errorf("accumulated_responses = %v", got.AccumulatedResponses)
	}
}

func TestLoadState_NewestWins(t *testing.T) {
	store := thread.NewMemStore()
	ctx := context.Background()

	id, _ := store.CreateThread(ctx)

	older := &State{InitialPrompt: "v1", TotalSteps: 3}
	newer := &State{InitialPrompt: "v1", TotalSteps: 3,
		AccumulatedResponses: []ModelResponse{{Model: "o3", Status: "success"}}}

	if err := SaveState(ctx, store, id, older, ""); err != nil {
		t.Fatalf("SaveState(older) error = %v", err)
	}
	if err := SaveState(ctx, store, id, newer, ""); err != nil {
		t.Fatalf("SaveState(newer) error = %v", err)
	}

	got, err := LoadState(ctx, store, id)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if got == nil || len(got.AccumulatedResponses) != 1 {
		t.Errorf("LoadState() = %+v, want the newer state", got)
	}
}

func TestLoadState_SkipsOtherTools(t *testing.T) {
	store := thread.NewMemStore()
	ctx := context.Background()

	id, _ := store.CreateThread(ctx)

	if err := SaveState(ctx, store, id, &State{InitialPrompt: "question", TotalSteps: 1}, ""); err != nil {
		t.Fatalf("SaveState() error = %v", err)
	}

	// A later turn from another tool must not shadow the consensus state.
	chat := thread.Turn{Role: "assistant", Content: "unrelated", ToolName: "chat"}
	if err := chat.EncodeMetadata("chat_state", map[string]string{"k": "v"}); err != nil {
		t.Fatalf("EncodeMetadata() error = %v", err)
	}
	if err := store.AddTurn(ctx, id, chat); err != nil {
		t.Fatalf("AddTurn() error = %v", err)
	}

	got, err := LoadState(ctx, store, id)
	if err != nil {
		t.Fatalf("LoadState() error = %v", err)
	}
	if got == nil || got.InitialPrompt != "question" {
		t.Errorf("LoadState() = %+v, want the consensus state", got)
	}
}

func TestLoadState_MissingCases(t *testing.T) {
	store := thread.NewMemStore()
	ctx := context.Background()

	if got, err := LoadState(ctx, store, ""); got != nil || err != nil {
		t.Errorf("LoadState(empty id) = (%v, %v), want (nil, nil)", got, err)
	}
	if got, err := LoadState(ctx, nil, "some-id"); got != nil || err != nil {
		t.Errorf("LoadState(nil store) = (%v, %v), want (nil, nil)", got, err)
	}
	if got, err := LoadState(ctx, store, "no-such-thread"); got != nil || err != nil {
		t.Errorf("LoadState(unknown thread) = (%v, %v), want (nil, nil)", got, err)
	}

	// A thread with no consensus turns yields no state.
	id, _ := store.CreateThread(ctx)
	if got, err := LoadState(ctx, store, id); got != nil || err != nil {
		t.Errorf("LoadState(empty thread) = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestSaveState_NoStoreIsNoOp(t *testing.T) {
	if err := SaveState(context.Background(), nil, "id", &State{}, ""); err != nil {
		t.Errorf("SaveState(nil store) = %v, want nil", err)
	}
	if err := SaveState(context.Background(), thread.NewMemStore(), "", &State{}, ""); err != nil {
		t.Errorf("SaveState(empty id) = %v, want nil", err)
	}
}
