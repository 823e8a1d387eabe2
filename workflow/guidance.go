package workflow

import (
	"fmt"
	"strings"
)

// GuidanceTier selects which pacing message a step response carries.
//
// The tier is a pure function of step number and confidence. Dispatch is a
// lookup table keyed by this closed enum so each tier stays independently
// testable.
type GuidanceTier string

const (
	// TierInitial applies to step 1 regardless of confidence.
	TierInitial GuidanceTier = "initial"

	// TierExploration applies when confidence is exploring or low.
	TierExploration GuidanceTier = "exploration"

	// TierVerification applies when confidence is medium or high.
	TierVerification GuidanceTier = "verification"

	// TierDefault applies to every other confidence value.
	TierDefault GuidanceTier = "default"
)

// TierFor maps a step number and confidence onto a guidance tier.
func TierFor(stepNumber int, confidence Confidence) GuidanceTier {
	if stepNumber == 1 {
		return TierInitial
	}
	switch confidence {
	case ConfidenceExploring, ConfidenceLow:
		return TierExploration
	case ConfidenceMedium, ConfidenceHigh:
		return TierVerification
	default:
		return TierDefault
	}
}

// GuidanceText holds the per-tool phrasing used in pacing messages.
type GuidanceText struct {
	// ToolName is the externally visible tool identifier, e.g. "codereview".
	ToolName string

	// WorkNoun is the human phrasing of the work, e.g. "code review".
	WorkNoun string

	// PauseLabel is the short label used in the default tier's pause
	// directive, e.g. "REVIEW".
	PauseLabel string
}

// guidanceBuilder renders one tier's message.
type guidanceBuilder func(text GuidanceText, stepNumber int, actions []string) string

// guidanceBuilders is the tier dispatch table.
var guidanceBuilders = map[GuidanceTier]guidanceBuilder{
	TierInitial:      initialGuidance,
	TierExploration:  explorationGuidance,
	TierVerification: verificationGuidance,
	TierDefault:      defaultGuidance,
}

// StepGuidance produces the next_steps pacing message for a step.
//
// actions are the tool's required actions for this step and confidence
// level. The tier is derived from stepNumber and confidence.
func StepGuidance(text GuidanceText, stepNumber int, confidence Confidence, actions []string) string {
	tier := TierFor(stepNumber, confidence)
	return guidanceBuilders[tier](text, stepNumber, actions)
}

// initialGuidance forces evidence gathering before the second call.
func initialGuidance(text GuidanceText, _ int, _ []string) string {
	return fmt.Sprintf(
		"MANDATORY: DO NOT call the %s tool again immediately. You MUST first examine "+
			"the code files thoroughly using appropriate tools. Read the relevant files, "+
			"understand the structure, and look for issues before reporting back. Only "+
			"call %s again AFTER completing your investigation, with step_number: 2 and "+
			"the results of your analysis.",
		text.ToolName, text.ToolName)
}

// explorationGuidance demands deeper analysis while confidence is low.
func explorationGuidance(text GuidanceText, stepNumber int, actions []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb,
		"STOP! Do NOT call %s again yet. Your confidence indicates deeper analysis is "+
			"needed first. MANDATORY ACTIONS before calling %s step %d:\n",
		text.ToolName, text.ToolName, stepNumber+1)
	for i, action := range actions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, action)
	}
	fmt.Fprintf(&sb,
		"Only call %s again with step_number: %d once you have completed these "+
			"investigations and gathered concrete evidence.",
		text.ToolName, stepNumber+1)
	return sb.String()
}

// verificationGuidance adds a completeness check at medium or high confidence.
func verificationGuidance(text GuidanceText, stepNumber int, actions []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb,
		"WAIT! Your %s needs final verification. DO NOT call %s immediately. "+
			"REQUIRED ACTIONS:\n",
		text.WorkNoun, text.ToolName)
	for i, action := range actions {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, action)
	}
	fmt.Fprintf(&sb,
		"Verify the completeness of your %s against these points, then call %s with "+
			"step_number: %d to report your verified conclusions.",
		text.WorkNoun, text.ToolName, stepNumber+1)
	return sb.String()
}

// defaultGuidance shows a shortened action list and warns against recursion.
// Only the first two actions are surfaced to keep the message compact.
func defaultGuidance(text GuidanceText, stepNumber int, actions []string) string {
	shown := actions
	if len(shown) > 2 {
		shown = shown[:2]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb,
		"PAUSE %s. Before calling %s step %d, you MUST make progress on the work "+
			"itself. Required: %s.",
		text.PauseLabel, text.ToolName, stepNumber+1, strings.Join(shown, "; "))
	fmt.Fprintf(&sb,
		" Your next %s call (step_number: %d) must include NEW evidence from actual "+
			"analysis, not just theories. NO recursive %s calls without investigation work!",
		text.ToolName, stepNumber+1, text.ToolName)
	return sb.String()
}
