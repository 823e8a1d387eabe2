// Package model defines the provider contract the workflow engine consumes.
package model

import "context"

// ProviderType identifies which backend serves a model.
type ProviderType string

// Known provider types. Custom providers may introduce their own values.
const (
	ProviderOpenAI    ProviderType = "openai"
	ProviderAnthropic ProviderType = "anthropic"
	ProviderGoogle    ProviderType = "google"
	ProviderCustom    ProviderType = "custom"
)

// Provider is the boundary contract between the workflow engine and an LLM
// backend. The engine only ever consumes providers through this interface;
// transport, authentication, and retry policy live behind it.
//
// Implementations should:
//   - Respect context cancellation and timeouts
//   - Map backend errors to *GenerateError with Retryable set appropriately
//   - Be safe for concurrent use
//
// Example usage:
//
//	p, err := openai.New(apiKey)
//	out, err := p.GenerateContent(ctx, model.GenerateRequest{
//	    Prompt:       "Evaluate this proposal...",
//	    Model:        "o3",
//	    SystemPrompt: stancePrompt,
//	    Temperature:  0.2,
//	})
type Provider interface {
	// GenerateContent sends a single prompt to the backend and returns the
	// model's response. Failures are opaque to the engine beyond the
	// error contract described on GenerateError.
	GenerateContent(ctx context.Context, req GenerateRequest) (GenerateOut, error)

	// Type returns the provider's type for diversity selection and
	// response metadata.
	Type() ProviderType
}

// GenerateRequest carries one content-generation call.
type GenerateRequest struct {
	// Prompt is the user-role content, including any embedded file context.
	Prompt string

	// Model is the backend model name (e.g., "o3", "gemini-2.5-pro").
	Model string

	// SystemPrompt sets behavior; for consensus consultations this carries
	// the stance-enhanced prompt.
	SystemPrompt string

	// Temperature controls sampling. The consensus orchestrator pins this
	// low (0.2) for run-to-run consistency.
	Temperature float64

	// Images holds optional image paths or data URLs for visual context.
	// Providers without vision support ignore them.
	Images []string
}

// GenerateOut is a provider response.
type GenerateOut struct {
	// Content is the generated text.
	Content string

	// TokensUsed reports total token consumption when the backend exposes
	// it, zero otherwise.
	TokensUsed int
}

// GenerateError represents a provider failure with retryability information.
//
// The engine treats all provider failures as opaque and isolates them per
// consultation step; Retryable exists for hosts that wrap providers in their
// own retry policy.
type GenerateError struct {
	// Code is a machine-readable error code ("rate_limited", "invalid_api_key", ...).
	Code string

	// Message is the human-readable error message.
	Message string

	// Retryable is true for transient failures (rate limits, timeouts) and
	// false for permanent ones (bad credentials, quota exhausted).
	Retryable bool
}

// Error implements the error interface.
func (e *GenerateError) Error() string {
	return e.Message
}

// IsRetryable reports whether the failure is transient.
func (e *GenerateError) IsRetryable() bool {
	return e.Retryable
}
