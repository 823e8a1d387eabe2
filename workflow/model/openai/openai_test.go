package openai

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
	if p.Type() != model.ProviderOpenAI {
		t.Errorf("Type() = %q, want %q", p.Type(), model.ProviderOpenAI)
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantCode      string
		wantRetryable bool
	}{
		{"unauthorized", errors.New("401 Unauthorized"), "invalid_api_key", false},
		{"rate limit", errors.New("429: rate limit exceeded"), "rate_limited", true},
		{"timeout", errors.New("context deadline exceeded"), "timeout", true},
		{"quota", errors.New("quota exceeded for this billing period"), "quota_exceeded", false},
		{"server error", errors.New("502 Bad Gateway"), "server_error", true},
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

	if mapError(nil) != nil {
		t.Error("mapError(nil) should be nil")
	}
}
