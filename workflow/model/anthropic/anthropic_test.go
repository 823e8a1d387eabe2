package anthropic

import (
	"errors"
	"testing"

	"github.com/dougzen/zenflow/workflow/model"
)

func TestNew_EmptyKey(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("New(\"\") should fail")
	}
}

func TestNew_Type(t *testing.T) {
	p, err := New("test-key")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if p.Type() != model.ProviderAnthropic {
		t.Errorf("Type() = %q, want %q", p.Type(), model.ProviderAnthropic)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCode      string
		wantRetryable bool
	}{
		{"authentication", errors.New("authentication_error: invalid x-api-key"), "invalid_api_key", false},
		{"rate limit", errors.New("429: rate limit reached"), "rate_limited", true},
		{"timeout", errors.New("request timeout"), "timeout", true},
		{"overloaded", errors.New("529 overloaded_error"), "overloaded", true},
		{"unknown", errors.New("something else"), "api_error", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var genErr *model.GenerateError
			if !errors.As(mapError(tt.err), &genErr) {
				t.Fatal("mapError() should return *model.GenerateError")
			}
			if genErr.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", genErr.Code, tt.wantCode)
			}
			if genErr.IsRetryable() != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", genErr.Retryable, tt.wantRetryable)
			}
		})
	}
}
