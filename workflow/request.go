package workflow

import (
	"fmt"
)

// Confidence is the caller-declared certainty level for a workflow step.
//
// The value drives which guidance tier the engine emits next. Values form a
// closed set; anything outside it fails validation.
type Confidence string

const (
	ConfidenceCertain       Confidence = "certain"
	ConfidenceAlmostCertain Confidence = "almost_certain"
	ConfidenceVeryHigh      Confidence = "very_high"
	ConfidenceHigh          Confidence = "high"
	ConfidenceMedium        Confidence = "medium"
	ConfidenceLow           Confidence = "low"
	ConfidenceExploring     Confidence = "exploring"
)

// validConfidences is the closed set of accepted confidence values.
var validConfidences = map[Confidence]bool{
	ConfidenceCertain:       true,
	ConfidenceAlmostCertain: true,
	ConfidenceVeryHigh:      true,
	ConfidenceHigh:          true,
	ConfidenceMedium:        true,
	ConfidenceLow:           true,
	ConfidenceExploring:     true,
}

// Valid reports whether c is one of the seven accepted values.
func (c Confidence) Valid() bool {
	return validConfidences[c]
}

// ModelConfig selects one model and its stance for a consensus panel.
type ModelConfig struct {
	// Model is the model name, resolved through the provider registry.
	Model string `json:"model"`

	// Stance is one of "for", "against", "neutral". Empty defaults to neutral.
	Stance string `json:"stance,omitempty"`

	// StancePrompt, when set, replaces the canned stance system prompt.
	StancePrompt string `json:"stance_prompt,omitempty"`
}

// Request is one workflow step report from the calling agent.
type Request struct {
	// Step is the step description. For consensus step 1 this carries the
	// proposal under evaluation.
	Step string `json:"step"`

	// StepNumber is the 1-based index of this step.
	StepNumber int `json:"step_number"`

	// TotalSteps is the planned number of steps.
	TotalSteps int `json:"total_steps"`

	// NextStepRequired is false exactly on the final step.
	NextStepRequired bool `json:"next_step_required"`

	// Findings is the agent's evidence summary for this step.
	Findings string `json:"findings"`

	// Confidence is the caller's certainty level.
	Confidence Confidence `json:"confidence,omitempty"`

	// RelevantFiles lists file paths examined in this step. Paths are
	// validated before any use.
	RelevantFiles []string `json:"relevant_files,omitempty"`

	// RelevantContext names methods or functions central to the findings.
	RelevantContext []string `json:"relevant_context,omitempty"`

	// Hypothesis is the current working theory, used by diagnostic tools.
	Hypothesis string `json:"hypothesis,omitempty"`

	// Images holds paths to screenshots or diagrams supporting the step.
	Images []string `json:"images,omitempty"`

	// Issues are structured findings discovered this step. Each entry is a
	// free-form object; a "severity" field drives aggregation.
	Issues []Issue `json:"issues_found,omitempty"`

	// ContinuationID resumes an existing conversation thread.
	ContinuationID string `json:"continuation_id,omitempty"`

	// Models configures a consensus panel. Empty or ["auto"] triggers
	// automatic panel construction.
	Models []ModelConfig `json:"models,omitempty"`
}

// Validate enforces step sequencing invariants.
//
// Rules:
//   - step_number >= 1, total_steps >= 1
//   - step_number <= total_steps
//   - next_step_required is false exactly on the final step
//   - step 1 must supply the tool's bootstrap field when one is required
//   - confidence, when present, must be a known value
//   - no duplicate (model, stance) pairs in a panel
func (r *Request) Validate(requireFilesOnStepOne bool) error {
	if r.StepNumber < 1 {
		return &ValidationError{Message: fmt.Sprintf("step_number must be at least 1, got %d", r.StepNumber)}
	}
	if r.TotalSteps < 1 {
		return &ValidationError{Message: fmt.Sprintf("total_steps must be at least 1, got %d", r.TotalSteps)}
	}
	if r.StepNumber > r.TotalSteps {
		return &ValidationError{
			Message: fmt.Sprintf("step_number %d exceeds total_steps %d", r.StepNumber, r.TotalSteps),
		}
	}

	final := r.StepNumber == r.TotalSteps
	if final && r.NextStepRequired {
		return &ValidationError{
			Message: "next_step_required must be false on the final step",
		}
	}
	if !final && !r.NextStepRequired {
		return &ValidationError{
			Message: "next_step_required must be true before the final step",
		}
	}

	if r.Confidence != "" && !r.Confidence.Valid() {
		return &ValidationError{Message: fmt.Sprintf("unknown confidence value %q", r.Confidence)}
	}

	if requireFilesOnStepOne && r.StepNumber == 1 && len(r.RelevantFiles) == 0 {
		return &ValidationError{Message: "Step 1 requires 'relevant_files' field to specify code files or directories to review"}
	}

	if err := validatePanel(r.Models); err != nil {
		return err
	}

	return nil
}

// validatePanel rejects duplicate (model, stance) pairs before any model
// is consulted.
func validatePanel(models []ModelConfig) error {
	seen := make(map[string]bool, len(models))
	for _, m := range models {
		stance := m.Stance
		if stance == "" {
			stance = "neutral"
		}
		key := m.Model + ":" + stance
		if seen[key] {
			return &ValidationError{
				Message: fmt.Sprintf("duplicate model + stance combination: %s with stance %s", m.Model, stance),
			}
		}
		seen[key] = true
	}
	return nil
}
