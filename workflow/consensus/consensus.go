// Package consensus implements the multi-model consensus workflow.
//
// The workflow drives one model consultation per step. Step 1 records the
// caller's own analysis and consults the first panel model; each later step
// consults the next model in order. State between invocations lives in the
// thread store as turn metadata, so a continuation ID is all a caller needs
// to resume.
package consensus

import (
	"context"
	"fmt"
	"time"

	"github.com/dougzen/zenflow/workflow"
	"github.com/dougzen/zenflow/workflow/emit"
	"github.com/dougzen/zenflow/workflow/model"
	"github.com/dougzen/zenflow/workflow/thread"
)

// temperatureAnalytical is the fixed low temperature used for every
// consultation, keeping responses comparable across the panel.
const temperatureAnalytical = 0.2

// Orchestrator runs the sequential consensus protocol.
//
// Each ExecuteStep call consults exactly one model; the calling agent
// drives progression by re-invoking with an incremented step number.
// Per-model failures are isolated: a failed consultation occupies its
// response slot with an error entry and the sequence continues.
type Orchestrator struct {
	registry *model.Registry
	threads  thread.Store
	emitter  emit.Emitter
	metrics  *workflow.PrometheusMetrics
	loader   workflow.FileLoader
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEmitter installs the event emitter. Defaults to NullEmitter.
func WithEmitter(em emit.Emitter) Option {
	return func(o *Orchestrator) { o.emitter = em }
}

// WithMetrics installs Prometheus metrics collection.
func WithMetrics(m *workflow.PrometheusMetrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithFileLoader replaces the default on-disk file loader used for the
// context block.
func WithFileLoader(loader workflow.FileLoader) Option {
	return func(o *Orchestrator) { o.loader = loader }
}

// New creates a consensus orchestrator.
//
// The registry resolves model names to providers; the thread store carries
// workflow state across invocations. A nil store is accepted, in which case
// state survives only within a single call.
func New(registry *model.Registry, threads thread.Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: registry,
		threads:  threads,
		emitter:  emit.NewNullEmitter(),
		loader:   workflow.LoadFileContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// isAutoPanel reports whether the request asks for automatic panel
// construction: an empty model list or the single sentinel "auto"/"AUTO".
func isAutoPanel(models []workflow.ModelConfig) bool {
	if len(models) == 0 {
		return true
	}
	if len(models) == 1 && (models[0].Model == "auto" || models[0].Model == "AUTO") {
		return true
	}
	return false
}

// ExecuteStep processes one consensus step: resolve the panel, recover
// state, consult this step's model, persist updated state, and answer with
// the consultation result plus synthesis guidance.
func (o *Orchestrator) ExecuteStep(ctx context.Context, req *workflow.Request) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if isAutoPanel(req.Models) {
		panel, err := BuildAutoPanel(o.registry, MaxModelsFromEnv(), StancePatternFromEnv(), o.emitter)
		if err != nil {
			return nil, err
		}
		req.Models = panel
		if o.metrics != nil {
			o.metrics.RecordPanelSize(len(panel))
		}
	}

	if err := req.Validate(false); err != nil {
		return nil, err
	}

	threadID := req.ContinuationID
	if threadID == "" && o.threads != nil && req.StepNumber == 1 {
		id, err := o.threads.CreateThread(ctx)
		if err != nil {
			return nil, err
		}
		threadID = id
	}

	state, err := LoadState(ctx, o.threads, threadID)
	if err != nil {
		return nil, err
	}

	// Step 1 always starts fresh; the resolved panel size is authoritative
	// and overwrites any caller-supplied total_steps.
	if req.StepNumber == 1 {
		state = &State{
			InitialPrompt:   req.Step,
			ModelsToConsult: req.Models,
			TotalSteps:      len(req.Models),
		}
		req.TotalSteps = state.TotalSteps
	}
	if state == nil {
		o.emitter.Emit(emit.Event{
			ThreadID: threadID,
			Step:     req.StepNumber,
			Tool:     "consensus",
			Msg:      "No consensus state found, using request data",
		})
		state = &State{
			InitialPrompt:   req.Step,
			ModelsToConsult: req.Models,
			TotalSteps:      req.TotalSteps,
		}
	}

	modelIdx := req.StepNumber - 1
	if modelIdx >= len(state.ModelsToConsult) {
		return nil, &workflow.ValidationError{
			Message: fmt.Sprintf("step %d has no model to consult: panel has %d models",
				req.StepNumber, len(state.ModelsToConsult)),
		}
	}

	resp := o.consultModel(ctx, state.ModelsToConsult[modelIdx], req, state.InitialPrompt)
	state.AccumulatedResponses = append(state.AccumulatedResponses, resp)

	if err := SaveState(ctx, o.threads, threadID, state,
		fmt.Sprintf("Consulted model %s with stance %s", resp.Model, resp.Stance)); err != nil {
		return nil, err
	}

	final := req.StepNumber == req.TotalSteps

	data := map[string]any{
		"status":                "model_consulted",
		"step_number":           req.StepNumber,
		"total_steps":           req.TotalSteps,
		"model_consulted":       resp.Model,
		"model_stance":          resp.Stance,
		"model_response":        resp,
		"current_model_index":   modelIdx + 1,
		"next_step_required":    !final,
		"accumulated_responses": state.AccumulatedResponses,
	}

	if req.StepNumber == 1 {
		data["status"] = "analysis_and_first_model_consulted"
		data["agent_analysis"] = map[string]any{
			"initial_analysis": req.Step,
			"findings":         req.Findings,
		}
	}

	if final {
		data["status"] = "consensus_workflow_complete"
		data["consensus_complete"] = true
		data["complete_consensus"] = map[string]any{
			"initial_prompt":       state.InitialPrompt,
			"models_consulted":     consultedLabels(state.AccumulatedResponses),
			"total_responses":      len(state.AccumulatedResponses),
			"consensus_confidence": "high",
		}
		data["next_steps"] = "CONSENSUS GATHERING IS COMPLETE. Synthesize all perspectives and present:\n" +
			"1. Key points of AGREEMENT across models\n" +
			"2. Key points of DISAGREEMENT and why they differ\n" +
			"3. Your final consolidated recommendation\n" +
			"4. Specific, actionable next steps for implementation\n" +
			"5. Critical risks or concerns that must be addressed"
	} else {
		data["next_steps"] = fmt.Sprintf(
			"Model %s has provided its %s perspective. Please analyze this response and call consensus again with:\n"+
				"- step_number: %d\n"+
				"- findings: Summarize key points from this model's response",
			resp.Model, resp.Stance, req.StepNumber+1)
	}

	data["metadata"] = map[string]any{
		"tool_name":       "consensus",
		"model_name":      resp.Model,
		"model_used":      resp.Model,
		"provider_used":   resp.Metadata["provider"],
		"continuation_id": threadID,
	}

	return data, nil
}

// consultModel performs one model consultation. Failures of any kind are
// converted to an error entry so the sequence can continue.
func (o *Orchestrator) consultModel(ctx context.Context, cfg workflow.ModelConfig, req *workflow.Request, initialPrompt string) ModelResponse {
	stance := cfg.Stance
	if stance == "" {
		stance = "neutral"
	}

	fail := func(err error) ModelResponse {
		o.emitter.Emit(emit.Event{
			ThreadID: req.ContinuationID,
			Step:     req.StepNumber,
			Tool:     "consensus",
			Msg:      fmt.Sprintf("Error consulting model %s", cfg.Model),
			Meta:     map[string]interface{}{"error": err.Error(), "model": cfg.Model, "stance": stance},
		})
		return ModelResponse{
			Model:  cfg.Model,
			Stance: stance,
			Status: "error",
			Error:  err.Error(),
		}
	}

	provider, err := o.registry.ProviderFor(cfg.Model)
	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordConsultation(cfg.Model, "", "error", 0)
		}
		return fail(err)
	}

	prompt := initialPrompt
	if len(req.RelevantFiles) > 0 && o.loader != nil {
		fileContent, err := o.loader(req.RelevantFiles)
		if err != nil {
			return fail(err)
		}
		if fileContent != "" {
			prompt = fmt.Sprintf("%s\n\n=== CONTEXT FILES ===\n%s\n=== END CONTEXT ===", prompt, fileContent)
		}
	}

	start := time.Now()
	out, err := provider.GenerateContent(ctx, model.GenerateRequest{
		Prompt:       prompt,
		Model:        cfg.Model,
		SystemPrompt: StanceSystemPrompt(stance, cfg.StancePrompt),
		Temperature:  temperatureAnalytical,
	})
	latency := time.Since(start)
	if err != nil {
		if o.metrics != nil {
			o.metrics.RecordConsultation(cfg.Model, string(provider.Type()), "error", latency)
		}
		return fail(err)
	}

	if o.metrics != nil {
		o.metrics.RecordConsultation(cfg.Model, string(provider.Type()), "success", latency)
	}
	o.emitter.Emit(emit.Event{
		ThreadID: req.ContinuationID,
		Step:     req.StepNumber,
		Tool:     "consensus",
		Msg:      fmt.Sprintf("Consulted model %s with stance %s", cfg.Model, stance),
		Meta: map[string]interface{}{
			"model":       cfg.Model,
			"stance":      stance,
			"provider":    string(provider.Type()),
			"duration_ms": latency.Milliseconds(),
			"tokens":      out.TokensUsed,
		},
	})

	return ModelResponse{
		Model:   cfg.Model,
		Stance:  stance,
		Status:  "success",
		Verdict: out.Content,
		Metadata: map[string]string{
			"provider":   string(provider.Type()),
			"model_name": cfg.Model,
		},
	}
}

// consultedLabels renders accumulated responses as "model:stance" strings.
func consultedLabels(responses []ModelResponse) []string {
	labels := make([]string, len(responses))
	for i, r := range responses {
		labels[i] = r.Model + ":" + r.Stance
	}
	return labels
}
