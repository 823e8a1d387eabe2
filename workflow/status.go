package workflow

import "fmt"

// Workflow status values shared by all tools before remapping.
const (
	StatusInProgress = "in_progress"
	StatusPauseFor   = "pause_for"
	StatusRequired   = "required"
	StatusComplete   = "complete"
)

// StatusTemplates derives a tool's externally visible status names from its
// tool name. Tools with bespoke mappings override individual entries.
//
// Example for tool "debug":
//
//	in_progress -> debug_in_progress
//	pause_for   -> pause_for_debug
//	completed   -> debug_completed
//	requires_action -> debug_requires_action
func StatusTemplates(toolName string) map[string]string {
	return map[string]string{
		"in_progress":     fmt.Sprintf("%s_in_progress", toolName),
		"pause_for":       fmt.Sprintf("pause_for_%s", toolName),
		"completed":       fmt.Sprintf("%s_completed", toolName),
		"requires_action": fmt.Sprintf("%s_requires_action", toolName),
	}
}

// ApplyStatusMapping rewrites the top-level "status" field of a response
// using the tool's mapping.
//
// The operation mutates data in place. Only an exact, case-sensitive match
// on the current status value is rewritten; an absent or unmapped status
// leaves the envelope byte-identical. Non-string status values are left
// untouched.
func ApplyStatusMapping(data map[string]any, mapping map[string]string) {
	if len(mapping) == 0 {
		return
	}
	current, ok := data["status"].(string)
	if !ok {
		return
	}
	if mapped, ok := mapping[current]; ok {
		data["status"] = mapped
	}
}
