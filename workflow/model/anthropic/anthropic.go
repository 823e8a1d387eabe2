// Package anthropic adapts Anthropic's Claude API to the model.Provider contract.
package anthropic

import (
	"context"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/dougzen/zenflow/workflow/model"
)

const defaultMaxTokens = 4096

// Provider implements model.Provider using Anthropic's Messages API.
//
// Safe for concurrent use after creation; the underlying SDK client handles
// concurrent requests safely.
//
// Example usage:
//
//	p, err := anthropic.New(os.Getenv("ANTHROPIC_API_KEY"))
//	out, err := p.GenerateContent(ctx, model.GenerateRequest{
//	    Prompt: "Evaluate this proposal",
//	    Model:  "claude-3-5-sonnet-20241022",
//	})
type Provider struct {
	client *anthropic.Client
}

// New creates a new Anthropic provider.
//
// Returns an error if apiKey is empty. API keys can be obtained from
// https://console.anthropic.com/
func New(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key cannot be empty")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Provider{client: &client}, nil
}

// Type returns model.ProviderAnthropic.
func (p *Provider) Type() model.ProviderType {
	return model.ProviderAnthropic
}

// GenerateContent sends the prompt to Claude and returns the response text.
//
// The system prompt travels in the Messages API system field; the prompt is
// a single user message. Token usage is input + output tokens.
func (p *Provider) GenerateContent(ctx context.Context, req model.GenerateRequest) (model.GenerateOut, error) {
	if err := ctx.Err(); err != nil {
		return model.GenerateOut{}, err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: defaultMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	message, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return model.GenerateOut{}, mapError(err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	return model.GenerateOut{
		Content:    sb.String(),
		TokensUsed: int(message.Usage.InputTokens + message.Usage.OutputTokens),
	}, nil
}

// mapError converts Anthropic API errors to *model.GenerateError.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "401") || strings.Contains(lower, "403") || strings.Contains(lower, "authentication"):
		return &model.GenerateError{Code: "invalid_api_key", Message: msg}
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		return &model.GenerateError{Code: "rate_limited", Message: msg, Retryable: true}
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return &model.GenerateError{Code: "timeout", Message: msg, Retryable: true}
	case strings.Contains(lower, "overloaded") || strings.Contains(lower, "529"):
		return &model.GenerateError{Code: "overloaded", Message: msg, Retryable: true}
	default:
		return &model.GenerateError{Code: "api_error", Message: msg}
	}
}
