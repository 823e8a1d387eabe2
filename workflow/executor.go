package workflow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/dougzen/zenflow/workflow/emit"
	"github.com/dougzen/zenflow/workflow/thread"
)

// FileLoader reads the content of relevant files for prompt context.
// Failures must be filesystem-kind recoverable errors.
type FileLoader func(paths []string) (string, error)

// RequiredActionsFunc computes the investigation actions a tool demands
// before the next step.
type RequiredActionsFunc func(stepNumber int, confidence Confidence, findings string, totalSteps int) []string

// ToolSpec configures one workflow tool's behavior in the engine.
type ToolSpec struct {
	// Name is the externally visible tool identifier.
	Name string

	// Guidance holds the tool's pacing message phrasing.
	Guidance GuidanceText

	// StatusMapping rewrites the generic status values to tool-specific
	// ones. Empty means statuses pass through unchanged.
	StatusMapping map[string]string

	// RequireFilesOnStepOne demands a non-empty relevant_files list on the
	// first step.
	RequireFilesOnStepOne bool

	// RequiredActions computes the per-step investigation demands.
	RequiredActions RequiredActionsFunc
}

// CodeReviewSpec is the code review tool configuration.
//
// Its status mapping is bespoke rather than template-derived to keep the
// historical "code_review_*" names.
func CodeReviewSpec() ToolSpec {
	return ToolSpec{
		Name: "codereview",
		Guidance: GuidanceText{
			ToolName:   "codereview",
			WorkNoun:   "code review",
			PauseLabel: "REVIEW",
		},
		StatusMapping: map[string]string{
			StatusInProgress: "code_review_in_progress",
			StatusPauseFor:   "pause_for_code_review",
			StatusRequired:   "code_review_required",
			StatusComplete:   "code_review_complete",
		},
		RequireFilesOnStepOne: true,
		RequiredActions:       codeReviewActions,
	}
}

// DebugSpec is the debugging tool configuration. Statuses follow the
// standard templates.
func DebugSpec() ToolSpec {
	templates := StatusTemplates("debug")
	return ToolSpec{
		Name: "debug",
		Guidance: GuidanceText{
			ToolName:   "debug",
			WorkNoun:   "investigation",
			PauseLabel: "INVESTIGATION",
		},
		StatusMapping: map[string]string{
			StatusInProgress: templates["in_progress"],
			StatusPauseFor:   templates["pause_for"],
			StatusRequired:   templates["requires_action"],
			StatusComplete:   templates["completed"],
		},
		RequiredActions: debugActions,
	}
}

func codeReviewActions(stepNumber int, confidence Confidence, _ string, _ int) []string {
	switch {
	case stepNumber == 1:
		return []string{
			"Read and understand the code files specified for review",
			"Map the tech stack, frameworks, and overall architecture",
			"Identify the main components and their responsibilities",
		}
	case confidence == ConfidenceExploring || confidence == ConfidenceLow:
		return []string{
			"Examine specific code sections you have not yet analyzed",
			"Analyze security implications of the patterns you found",
			"Check for performance and resource management issues",
		}
	case confidence == ConfidenceMedium || confidence == ConfidenceHigh:
		return []string{
			"Verify all identified issues have concrete evidence",
			"Check for vulnerabilities you may have missed",
			"Confirm architectural concerns against the full codebase",
		}
	default:
		return []string{
			"Continue examining the codebase for additional issues",
			"Gather more evidence for your existing findings",
		}
	}
}

func debugActions(stepNumber int, confidence Confidence, _ string, _ int) []string {
	switch {
	case stepNumber == 1:
		return []string{
			"Reproduce the reported problem and capture the exact failure",
			"Locate the code paths involved in the failing behavior",
		}
	case confidence == ConfidenceExploring || confidence == ConfidenceLow:
		return []string{
			"Trace the failing code path and inspect intermediate state",
			"Rule out alternative hypotheses with targeted checks",
		}
	case confidence == ConfidenceMedium || confidence == ConfidenceHigh:
		return []string{
			"Verify your root cause explains every observed symptom",
			"Check for related code paths with the same defect",
		}
	default:
		return []string{
			"Gather concrete evidence for your current hypothesis",
			"Narrow the failure to a specific code location",
		}
	}
}

// Engine drives one tool's step-validated workflow.
//
// Each external call processes one step synchronously; the calling agent
// drives progression via separate invocations. The engine validates the
// request, folds evidence into the consolidator, and answers with pacing
// guidance plus a remapped status.
type Engine struct {
	spec     ToolSpec
	findings *ConsolidatedFindings
	threads  thread.Store
	emitter  emit.Emitter
	metrics  *PrometheusMetrics
	loader   FileLoader
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithThreadStore installs a conversation store so continuation IDs resolve
// across calls.
func WithThreadStore(store thread.Store) EngineOption {
	return func(e *Engine) { e.threads = store }
}

// WithEmitter installs the event emitter. Defaults to NullEmitter.
func WithEmitter(em emit.Emitter) EngineOption {
	return func(e *Engine) { e.emitter = em }
}

// WithMetrics installs Prometheus metrics collection.
func WithMetrics(m *PrometheusMetrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithFileLoader replaces the default on-disk file loader.
func WithFileLoader(loader FileLoader) EngineOption {
	return func(e *Engine) { e.loader = loader }
}

// NewEngine creates a workflow engine for one tool.
func NewEngine(spec ToolSpec, opts ...EngineOption) *Engine {
	e := &Engine{
		spec:     spec,
		findings: NewConsolidatedFindings(),
		emitter:  emit.NewNullEmitter(),
		loader:   LoadFileContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Findings exposes the session's consolidated evidence.
func (e *Engine) Findings() *ConsolidatedFindings {
	return e.findings
}

// ExecuteStep processes one workflow step.
//
// Validation failures and recoverable data or filesystem errors are
// converted into a structured error response at this boundary; each bucket
// gets its own log prefix. Unexpected errors are logged with full detail
// and propagated as fatal.
func (e *Engine) ExecuteStep(ctx context.Context, req *Request) (map[string]any, error) {
	resp, err := e.processStep(ctx, req)
	if err == nil {
		e.recordStep("success")
		return resp, nil
	}

	var fatal *FatalError
	if errors.As(err, &fatal) {
		e.emitter.Emit(emit.Event{
			Tool: e.spec.Name,
			Step: req.StepNumber,
			Msg:  fmt.Sprintf("Unexpected error in %s: %v", e.spec.Name, fatal.Cause),
			Meta: map[string]interface{}{"error": fatal.Cause.Error()},
		})
		e.recordStep("unexpected")
		return nil, fatal
	}

	switch Classify(err) {
	case KindValidation:
		e.emitter.Emit(emit.Event{
			Tool: e.spec.Name,
			Step: req.StepNumber,
			Msg:  fmt.Sprintf("Validation/data error in %s: %v", e.spec.Name, err),
		})
		e.recordStep("validation_error")
		return errorResponse(e.spec.Name, req, err), nil
	case KindFilesystem:
		e.emitter.Emit(emit.Event{
			Tool: e.spec.Name,
			Step: req.StepNumber,
			Msg:  fmt.Sprintf("File system error in %s: %v", e.spec.Name, err),
		})
		e.recordStep("filesystem_error")
		return errorResponse(e.spec.Name, req, err), nil
	default:
		e.emitter.Emit(emit.Event{
			Tool: e.spec.Name,
			Step: req.StepNumber,
			Msg:  fmt.Sprintf("Unexpected error in %s: %v", e.spec.Name, err),
			Meta: map[string]interface{}{"error": err.Error()},
		})
		e.recordStep("unexpected")
		return nil, &FatalError{Cause: err}
	}
}

// processStep is the happy-path step pipeline. Errors surface untranslated
// for the boundary in ExecuteStep to classify.
func (e *Engine) processStep(ctx context.Context, req *Request) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := req.Validate(e.spec.RequireFilesOnStepOne); err != nil {
		e.findings.Invalidate()
		return nil, err
	}
	if err := ValidatePaths(req.RelevantFiles, e.spec.Name, e.emitter); err != nil {
		e.findings.Invalidate()
		return nil, err
	}

	if req.StepNumber == 1 && len(req.RelevantFiles) > 0 && e.loader != nil {
		if _, err := e.loader(req.RelevantFiles); err != nil {
			e.findings.Invalidate()
			return nil, err
		}
	}

	data := StepData{
		Findings:        req.Findings,
		FilesChecked:    req.RelevantFiles,
		RelevantFiles:   req.RelevantFiles,
		RelevantContext: req.RelevantContext,
		Issues:          req.Issues,
		Images:          req.Images,
		Confidence:      req.Confidence,
	}
	if req.Hypothesis != "" {
		data.Hypotheses = []string{req.Hypothesis}
	}
	if err := e.findings.Update(data); err != nil {
		return nil, err
	}

	continuationID, err := e.touchThread(ctx, req)
	if err != nil {
		return nil, err
	}

	actions := []string{}
	if e.spec.RequiredActions != nil {
		actions = e.spec.RequiredActions(req.StepNumber, req.Confidence, req.Findings, req.TotalSteps)
	}

	status := StatusInProgress
	if !req.NextStepRequired {
		status = StatusComplete
	}

	resp := map[string]any{
		"status":             status,
		"step_number":        req.StepNumber,
		"total_steps":        req.TotalSteps,
		"next_steps":         StepGuidance(e.spec.Guidance, req.StepNumber, req.Confidence, actions),
		"issues_by_severity": e.findings.SeverityCounts(),
		"metadata": map[string]any{
			"tool_name":       e.spec.Name,
			"continuation_id": continuationID,
		},
	}
	ApplyStatusMapping(resp, e.spec.StatusMapping)

	return resp, nil
}

// touchThread resolves or creates the conversation thread and records the
// step as a turn. Without a store, the continuation ID passes through.
func (e *Engine) touchThread(ctx context.Context, req *Request) (string, error) {
	if e.threads == nil {
		return req.ContinuationID, nil
	}

	id := req.ContinuationID
	if id == "" {
		var err error
		id, err = e.threads.CreateThread(ctx)
		if err != nil {
			return "", err
		}
	} else if _, err := e.threads.GetThread(ctx, id); err != nil {
		if errors.Is(err, thread.ErrThreadNotFound) {
			return "", &ValidationError{Message: fmt.Sprintf("unknown continuation_id %q", id)}
		}
		return "", err
	}

	turn := thread.Turn{
		Role:     "user",
		Content:  req.Step,
		ToolName: e.spec.Name,
	}
	if err := e.threads.AddTurn(ctx, id, turn); err != nil {
		return "", err
	}
	return id, nil
}

func (e *Engine) recordStep(status string) {
	if e.metrics != nil {
		e.metrics.RecordStep(e.spec.Name, status)
	}
}

// errorResponse is the structured envelope for recoverable failures.
func errorResponse(toolName string, req *Request, err error) map[string]any {
	return map[string]any{
		"status":      "error",
		"step_number": req.StepNumber,
		"total_steps": req.TotalSteps,
		"error":       err.Error(),
		"metadata": map[string]any{
			"tool_name":       toolName,
			"continuation_id": req.ContinuationID,
		},
	}
}

// LoadFileContext reads each path and concatenates contents with file
// markers. Filesystem failures come back as filesystem-kind recoverable
// errors so the step boundary degrades gracefully.
func LoadFileContext(paths []string) (string, error) {
	var sb strings.Builder
	for _, p := range paths {
		// Directory entries contribute no inline content
		if strings.HasSuffix(p, "/") || strings.HasSuffix(p, "\\") {
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
				return "", &RecoverableError{Kind: KindFilesystem, Err: err}
			}
			var pathErr *fs.PathError
			if errors.As(err, &pathErr) {
				return "", &RecoverableError{Kind: KindFilesystem, Err: err}
			}
			return "", err
		}
		fmt.Fprintf(&sb, "--- %s ---\n%s\n", p, data)
	}
	return sb.String(), nil
}
