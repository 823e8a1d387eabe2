// Package google adapts Google's Gemini API to the model.Provider contract.
package google

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/dougzen/zenflow/workflow/model"
)

// Provider implements model.Provider using Google's Gemini API.
//
// Example usage:
//
//	p, err := google.New("")  // falls back to GOOGLE_API_KEY
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	out, err := p.GenerateContent(ctx, model.GenerateRequest{
//	    Prompt: "Evaluate this proposal",
//	    Model:  "gemini-2.5-flash",
//	})
type Provider struct {
	client *genai.Client
}

// New creates a new Google Gemini provider.
//
// If apiKey is empty, the GOOGLE_API_KEY environment variable is used.
// Returns an error if no key is available or client creation fails.
func New(apiKey string) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
		if apiKey == "" {
			return nil, &model.GenerateError{
				Code:    "missing_api_key",
				Message: "Google API key not provided and GOOGLE_API_KEY environment variable not set",
			}
		}
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google client: %w", err)
	}

	return &Provider{client: client}, nil
}

// Close closes the underlying Gemini client and releases resources.
func (p *Provider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}

// Type returns model.ProviderGoogle.
func (p *Provider) Type() model.ProviderType {
	return model.ProviderGoogle
}

// GenerateContent sends the prompt to Gemini and returns the response text.
//
// The system prompt maps to Gemini's system instruction; temperature is set
// on the generative model when positive.
func (p *Provider) GenerateContent(ctx context.Context, req model.GenerateRequest) (model.GenerateOut, error) {
	if err := ctx.Err(); err != nil {
		return model.GenerateOut{}, err
	}

	gm := p.client.GenerativeModel(req.Model)
	if req.SystemPrompt != "" {
		gm.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.SystemPrompt)},
		}
	}
	if req.Temperature > 0 {
		gm.SetTemperature(float32(req.Temperature))
	}

	resp, err := gm.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return model.GenerateOut{}, mapError(err)
	}

	content, err := extractText(resp)
	if err != nil {
		return model.GenerateOut{}, err
	}

	tokensUsed := 0
	if resp.UsageMetadata != nil {
		tokensUsed = int(resp.UsageMetadata.TotalTokenCount)
	}

	return model.GenerateOut{
		Content:    content,
		TokensUsed: tokensUsed,
	}, nil
}

// extractText concatenates the text parts of the first candidate.
func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &model.GenerateError{
			Code:    "empty_response",
			Message: "no candidates in Google API response",
		}
	}

	var sb strings.Builder
	if content := resp.Candidates[0].Content; content != nil {
		for _, part := range content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}

	return sb.String(), nil
}

// mapError converts Gemini API errors to *model.GenerateError.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "api key") || strings.Contains(lower, "401") || strings.Contains(lower, "permission"):
		return &model.GenerateError{Code: "invalid_api_key", Message: msg}
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate") || strings.Contains(lower, "resource exhausted"):
		return &model.GenerateError{Code: "rate_limited", Message: msg, Retryable: true}
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return &model.GenerateError{Code: "timeout", Message: msg, Retryable: true}
	case strings.Contains(lower, "safety"):
		return &model.GenerateError{Code: "safety_blocked", Message: msg}
	default:
		return &model.GenerateError{Code: "api_error", Message: msg}
	}
}
