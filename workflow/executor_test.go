package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dougzen/zenflow/workflow/emit"
	"github.com/dougzen/zenflow/workflow/thread"
)

// stubLoader returns canned content without touching the filesystem.
func stubLoader(content string, err error) FileLoader {
	return func(paths []string) (string, error) {
		return content, err
	}
}

func TestExecuteStep_HappyPath(t *testing.T) {
	engine := NewEngine(CodeReviewSpec(), WithFileLoader(stubLoader("file content", nil)))

	resp, err := engine.ExecuteStep(context.Background(), &Request{
		Step:             "review the auth package",
		StepNumber:       1,
		TotalSteps:       2,
		NextStepRequired: true,
		Findings:         "initial look",
		RelevantFiles:    []string{"/src/auth/login.go"},
		Issues:           []Issue{{"severity": "high", "description": "token not validated"}},
	})
	if err != nil {
		t.Fatalf("ExecuteStep() error = %v", err)
	}

	if resp["status"] != "code_review_in_progress" {
		t.Errorf("status = %v, want code_review_in_progress", resp["status"])
	}
	if resp["step_number"] != 1 || resp["total_steps"] != 2 {
		t.Errorf("step fields = %v/%v, want 1/2", resp["step_number"], resp["total_steps"])
	}

	counts, ok := resp["issues_by_severity"].(map[string]int)
	if !ok || counts["high"] != 1 {
		t.Errorf("issues_by_severity = %v, want high:1", resp["issues_by_severity"])
	}

	meta, ok := resp["metadata"].(map[string]any)
	if !ok || meta["tool_name"] != "codereview" {
		t.Errorf("metadata = %v, want tool_name codereview", resp["metadata"])
	}

	next, _ := resp["next_steps"].(string)
	if !strings.Contains(next, "MANDATORY") {
		t.Errorf("next_steps = %q, want initial guidance", next)
	}
}

func TestExecuteStep_FinalStepStatus(t *testing.T) {
	engine := NewEngine(CodeReviewSpec(), WithFileLoader(stubLoader("", nil)))

	resp, err := engine.ExecuteStep(context.Background(), &Request{
		Step:             "wrap up",
		StepNumber:       2,
		TotalSteps:       2,
		NextStepRequired: false,
		Findings:         "all verified",
		Confidence:       ConfidenceHigh,
	})
	if err != nil {
		t.Fatalf("ExecuteStep() error = %v", err)
	}

	if resp["status"] != "code_review_complete" {
		t.Errorf("status = %v, want code_review_complete", resp["status"])
	}
}

func TestExecuteStep_ValidationErrorResponse(t *testing.T) {
	buf := emit.NewBufferedEmitter()
	engine := NewEngine(CodeReviewSpec(), WithEmitter(buf))

	resp, err := engine.ExecuteStep(context.Background(), &Request{
		Step:             "too far",
		StepNumber:       5,
		TotalSteps:       3,
		NextStepRequired: false,
	})
	if err != nil {
		t.Fatalf("validation failures should become error responses, got %v", err)
	}
	if resp["status"] != "error" {
		t.Errorf("status = %v, want error", resp["status"])
	}

	events := buf.Events()
	if len(events) == 0 || !strings.Contains(events[0].Msg, "Validation/data error in codereview:") {
		t.Errorf("events = %v, want validation log prefix", events)
	}
}

func TestExecuteStep_FilesystemErrorResponse(t *testing.T) {
	buf := emit.NewBufferedEmitter()
	fsErr := &RecoverableError{Kind: KindFilesystem, Err: errors.New("open /src/gone.go: no such file")}
	engine := NewEngine(CodeReviewSpec(), WithEmitter(buf), WithFileLoader(stubLoader("", fsErr)))

	// Populate the cache first so we can observe invalidation
	engine.Findings().Issues = append(engine.Findings().Issues, Issue{"severity": "low"})
	engine.Findings().SeverityCounts()

	resp, err := engine.ExecuteStep(context.Background(), &Request{
		Step:             "review",
		StepNumber:       1,
		TotalSteps:       2,
		NextStepRequired: true,
		RelevantFiles:    []string{"/src/gone.go"},
	})
	if err != nil {
		t.Fatalf("filesystem failures should become error responses, got %v", err)
	}
	if resp["status"] != "error" {
		t.Errorf("status = %v, want error", resp["status"])
	}

	var sawPrefix bool
	for _, e := range buf.Events() {
		if strings.Contains(e.Msg, "File system error in codereview:") {
			sawPrefix = true
		}
	}
	if !sawPrefix {
		t.Error("expected filesystem log prefix in emitted events")
	}

	if engine.Findings().severityCache != nil {
		t.Error("severity cache should be invalidated after a failed step")
	}
}

func TestExecuteStep_UnexpectedErrorPropagates(t *testing.T) {
	buf := emit.NewBufferedEmitter()
	engine := NewEngine(CodeReviewSpec(),
		WithEmitter(buf),
		WithFileLoader(stubLoader("", errors.New("corrupted internal state"))))

	_, err := engine.ExecuteStep(context.Background(), &Request{
		Step:             "review",
		StepNumber:       1,
		TotalSteps:       2,
		NextStepRequired: true,
		RelevantFiles:    []string{"/src/main.go"},
	})

	var fatal *FatalError
	if !errors.As(err, &fatal) {
		t.Fatalf("unexpected errors must propagate as *FatalError, got %v", err)
	}

	events := buf.Events()
	if len(events) == 0 || !strings.Contains(events[0].Msg, "Unexpected error in codereview:") {
		t.Errorf("events = %v, want unexpected log prefix", events)
	}
}

func TestExecuteStep_ThreadContinuation(t *testing.T) {
	store := thread.NewMemStore()
	engine := NewEngine(CodeReviewSpec(),
		WithThreadStore(store),
		WithFileLoader(stubLoader("", nil)))

	ctx := context.Background()

	resp, err := engine.ExecuteStep(ctx, &Request{
		Step:             "begin review",
		StepNumber:       1,
		TotalSteps:       2,
		NextStepRequired: true,
		RelevantFiles:    []string{"/src/main.go"},
	})
	if err != nil {
		t.Fatalf("ExecuteStep() error = %v", err)
	}

	meta := resp["metadata"].(map[string]any)
	continuationID, _ := meta["continuation_id"].(string)
	if continuationID == "" {
		t.Fatal("step 1 with a thread store should mint a continuation_id")
	}

	// Second step resumes the same thread
	if _, err := engine.ExecuteStep(ctx, &Request{
		Step:             "continue review",
		StepNumber:       2,
		TotalSteps:       2,
		NextStepRequired: false,
		Findings:         "done",
		ContinuationID:   continuationID,
	}); err != nil {
		t.Fatalf("ExecuteStep() step 2 error = %v", err)
	}

	th, err := store.GetThread(ctx, continuationID)
	if err != nil {
		t.Fatalf("GetThread() error = %v", err)
	}
	if len(th.Turns) != 2 {
		t.Errorf("thread has %d turns, want 2", len(th.Turns))
	}

	// Unknown continuation IDs are validation failures
	resp, err = engine.ExecuteStep(ctx, &Request{
		Step:             "resume",
		StepNumber:       2,
		TotalSteps:       2,
		NextStepRequired: false,
		ContinuationID:   "no-such-thread",
	})
	if err != nil {
		t.Fatalf("unknown continuation should be a structured error response, got %v", err)
	}
	if resp["status"] != "error" {
		t.Errorf("status = %v, want error for unknown continuation_id", resp["status"])
	}
}
