package consensus

import (
	"context"
	"errors"

	"github.com/dougzen/zenflow/workflow"
	"github.com/dougzen/zenflow/workflow/thread"
)

// stateMetadataKey is the turn metadata key carrying serialized State.
const stateMetadataKey = "consensus_state"

// ModelResponse records one model's contribution to the consensus.
//
// A failed consultation is recorded with status "error" and the failure
// message; the slot is kept so ordering survives partial failures.
type ModelResponse struct {
	Model    string            `json:"model"`
	Stance   string            `json:"stance"`
	Status   string            `json:"status"`
	Verdict  string            `json:"verdict,omitempty"`
	Error    string            `json:"error,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// State is the resumable consensus workflow state.
//
// The state lives in turn metadata rather than process memory, so an
// invocation at step N can reconstruct everything from the thread log that
// step 1 started.
type State struct {
	InitialPrompt        string                 `json:"initial_prompt"`
	ModelsToConsult      []workflow.ModelConfig `json:"models_to_consult"`
	AccumulatedResponses []ModelResponse        `json:"accumulated_responses"`
	TotalSteps           int                    `json:"total_steps"`
}

// LoadState recovers the most recent consensus state from a thread.
//
// Turns are scanned newest-first, filtered to consensus-tagged turns that
// carry the state key; the first match wins. Returns (nil, nil) when the
// thread has no state yet, and (nil, nil) for an unknown thread ID so a
// fresh workflow can proceed.
func LoadState(ctx context.Context, store thread.Store, threadID string) (*State, error) {
	if threadID == "" || store == nil {
		return nil, nil
	}

	t, err := store.GetThread(ctx, threadID)
	if err != nil {
		if errors.Is(err, thread.ErrThreadNotFound) {
			return nil, nil
		}
		return nil, err
	}

	for i := len(t.Turns) - 1; i >= 0; i-- {
		turn := t.Turns[i]
		if turn.ToolName != "consensus" {
			continue
		}
		var state State
		found, err := turn.DecodeMetadata(stateMetadataKey, &state)
		if err != nil {
			return nil, err
		}
		if found {
			return &state, nil
		}
	}

	return nil, nil
}

// SaveState appends a consensus-tagged turn carrying the updated state.
//
// content describes the step for human readers of the thread log; an empty
// content gets a generic description.
func SaveState(ctx context.Context, store thread.Store, threadID string, state *State, content string) error {
	if threadID == "" || store == nil {
		return nil
	}

	if content == "" {
		content = "Consensus state updated"
	}

	turn := thread.Turn{
		Role:     "assistant",
		Content:  content,
		ToolName: "consensus",
	}
	if err := turn.EncodeMetadata(stateMetadataKey, state); err != nil {
		return err
	}

	return store.AddTurn(ctx, threadID, turn)
}
