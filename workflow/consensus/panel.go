package consensus

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/dougzen/zenflow/workflow"
	"github.com/dougzen/zenflow/workflow/emit"
	"github.com/dougzen/zenflow/workflow/model"
)

// Environment variables controlling auto panel construction.
const (
	// EnvMaxModels caps the panel size. Default 5.
	EnvMaxModels = "MCP_CONSENSUS_MAX_MODELS"

	// EnvDefaultStances overrides the stance rotation pattern with a
	// comma-separated list, e.g. "for,against".
	EnvDefaultStances = "MCP_CONSENSUS_DEFAULT_STANCES"
)

// defaultMaxModels is the panel cap when EnvMaxModels is unset.
const defaultMaxModels = 5

// deepReasoningModels and fastResponseModels classify candidates by
// substring match against the lowercased model name.
var deepReasoningModels = []string{"o3", "o3-mini", "grok-4", "grok-3", "gemini-2.5-pro", "pro", "gemini pro"}

var fastResponseModels = []string{"o4-mini", "gemini-2.5-flash", "flash", "gemini-2.0-flash", "flash-2.0"}

// MaxModelsFromEnv reads the panel size cap, falling back to the default
// on absence or parse failure.
func MaxModelsFromEnv() int {
	if v := os.Getenv(EnvMaxModels); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultMaxModels
}

// StancePatternFromEnv reads the stance rotation pattern. The default is
// [for, against, neutral].
func StancePatternFromEnv() []string {
	raw := strings.TrimSpace(os.Getenv(EnvDefaultStances))
	if raw != "" {
		var pattern []string
		for _, s := range strings.Split(raw, ",") {
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" {
				pattern = append(pattern, s)
			}
		}
		if len(pattern) > 0 {
			return pattern
		}
	}
	return []string{"for", "against", "neutral"}
}

// matchesAny reports whether the lowercased name contains any of the set's
// entries as a substring.
func matchesAny(name string, set []string) bool {
	lower := strings.ToLower(name)
	for _, s := range set {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

// BuildAutoPanel selects a diverse model panel and assigns stances.
//
// Selection is greedy over the registry's available models in registration
// order:
//
//  1. one deep-reasoning model, preferring an unused provider
//  2. one fast-response model, preferring an unused provider
//  3. balanced models for provider diversity until 3 are chosen or the cap
//     is reached
//  4. remaining slots filled from leftovers, preferring unused providers
//
// Stances cycle through the pattern across the selection order. A panel of
// fewer than 3 models emits a non-fatal warning; zero available models is
// a configuration error.
func BuildAutoPanel(reg *model.Registry, maxModels int, stancePattern []string, em emit.Emitter) ([]workflow.ModelConfig, error) {
	if maxModels <= 0 {
		maxModels = MaxModelsFromEnv()
	}
	if len(stancePattern) == 0 {
		stancePattern = StancePatternFromEnv()
	}
	if em == nil {
		em = emit.NewNullEmitter()
	}

	available := reg.AvailableModels(true)
	if len(available) == 0 {
		return nil, &workflow.ConfigurationError{
			Message: "No models available for consensus. Please configure at least one provider " +
				"with API keys (OPENAI_API_KEY, GEMINI_API_KEY, XAI_API_KEY, etc.)",
		}
	}

	var deep, fast, balanced []model.ModelInfo
	for _, m := range available {
		switch {
		case matchesAny(m.Name, deepReasoningModels):
			deep = append(deep, m)
		case matchesAny(m.Name, fastResponseModels):
			fast = append(fast, m)
		default:
			balanced = append(balanced, m)
		}
	}

	var selected []string
	selectedSet := make(map[string]bool)
	usedProviders := make(map[model.ProviderType]bool)

	pick := func(m model.ModelInfo) {
		selected = append(selected, m.Name)
		selectedSet[m.Name] = true
		usedProviders[m.Provider] = true
	}

	// 1. At least one deep reasoning model
	if len(deep) > 0 {
		chosen := deep[0]
		for _, m := range deep {
			if !usedProviders[m.Provider] {
				chosen = m
				break
			}
		}
		pick(chosen)
	}

	// 2. At least one fast response model
	if len(fast) > 0 && len(selected) < maxModels {
		chosen := fast[0]
		for _, m := range fast {
			if !usedProviders[m.Provider] {
				chosen = m
				break
			}
		}
		pick(chosen)
	}

	// 3. Balanced models for provider diversity
	for _, m := range balanced {
		if len(selected) >= maxModels {
			break
		}
		if !usedProviders[m.Provider] || len(selected) < 3 {
			pick(m)
		}
	}

	// 4. Fill remaining slots, preferring still-unused providers
	var leftovers []model.ModelInfo
	for _, m := range available {
		if !selectedSet[m.Name] {
			leftovers = append(leftovers, m)
		}
	}
	sort.SliceStable(leftovers, func(i, j int) bool {
		ui, uj := usedProviders[leftovers[i].Provider], usedProviders[leftovers[j].Provider]
		if ui != uj {
			return !ui
		}
		return leftovers[i].Name < leftovers[j].Name
	})
	for _, m := range leftovers {
		if len(selected) >= maxModels {
			break
		}
		pick(m)
	}

	if len(selected) < 3 {
		em.Emit(emit.Event{
			Tool: "consensus",
			Msg: fmt.Sprintf("Only %d models available for consensus. "+
				"Recommend configuring more providers for better results.", len(selected)),
		})
	}

	panel := make([]workflow.ModelConfig, len(selected))
	for i, name := range selected {
		panel[i] = workflow.ModelConfig{
			Model:  name,
			Stance: stancePattern[i%len(stancePattern)],
		}
	}

	em.Emit(emit.Event{
		Tool: "consensus",
		Msg:  fmt.Sprintf("Auto-selected %d models for consensus", len(panel)),
		Meta: map[string]interface{}{"panel": panelLabels(panel)},
	})

	return panel, nil
}

// panelLabels renders a panel as "model:stance" strings for logging and
// the completion summary.
func panelLabels(panel []workflow.ModelConfig) []string {
	labels := make([]string, len(panel))
	for i, m := range panel {
		stance := m.Stance
		if stance == "" {
			stance = "neutral"
		}
		labels[i] = m.Model + ":" + stance
	}
	return labels
}
