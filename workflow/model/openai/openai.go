// Package openai adapts OpenAI's API to the model.Provider contract.
package openai

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/dougzen/zenflow/workflow/model"
)

// Provider implements model.Provider using OpenAI's chat completions API.
//
// The provider is safe for concurrent use; the underlying SDK client handles
// thread-safety internally.
//
// Example usage:
//
//	p, err := openai.New(os.Getenv("OPENAI_API_KEY"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := p.GenerateContent(ctx, model.GenerateRequest{
//	    Prompt: "Evaluate this proposal",
//	    Model:  "o3",
//	})
type Provider struct {
	client *openai.Client
}

// New creates a new OpenAI provider.
//
// Returns an error if apiKey is empty.
func New(apiKey string) (*Provider, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key cannot be empty")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
	)

	return &Provider{client: &client}, nil
}

// Type returns model.ProviderOpenAI.
func (p *Provider) Type() model.ProviderType {
	return model.ProviderOpenAI
}

// GenerateContent sends the prompt to OpenAI and returns the response text.
//
// The system prompt, when present, is sent as a system-role message ahead of
// the user prompt. API errors are mapped to *model.GenerateError with
// retryability classified.
func (p *Provider) GenerateContent(ctx context.Context, req model.GenerateRequest) (model.GenerateOut, error) {
	if err := ctx.Err(); err != nil {
		return model.GenerateOut{}, err
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(req.SystemPrompt),
				},
			},
		})
	}
	messages = append(messages, openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfString: openai.String(req.Prompt),
			},
		},
	})

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: messages,
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.GenerateOut{}, mapError(err)
	}

	if len(completion.Choices) == 0 {
		return model.GenerateOut{}, &model.GenerateError{
			Code:    "empty_response",
			Message: "no response from OpenAI API",
		}
	}

	return model.GenerateOut{
		Content:    completion.Choices[0].Message.Content,
		TokensUsed: int(completion.Usage.TotalTokens),
	}, nil
}

// mapError converts OpenAI API errors to *model.GenerateError,
// distinguishing retryable transient failures from permanent ones.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "401") || strings.Contains(lower, "invalid api key") || strings.Contains(lower, "unauthorized"):
		return &model.GenerateError{Code: "invalid_api_key", Message: msg}
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		return &model.GenerateError{Code: "rate_limited", Message: msg, Retryable: true}
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return &model.GenerateError{Code: "timeout", Message: msg, Retryable: true}
	case strings.Contains(lower, "quota"):
		return &model.GenerateError{Code: "quota_exceeded", Message: msg}
	case strings.Contains(lower, "500") || strings.Contains(lower, "502") || strings.Contains(lower, "503"):
		return &model.GenerateError{Code: "server_error", Message: msg, Retryable: true}
	default:
		return &model.GenerateError{Code: "api_error", Message: msg}
	}
}
