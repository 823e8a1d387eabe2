package model

import (
	"context"
	"sync"
)

// MockProvider is a test implementation of Provider.
//
// Use MockProvider in tests to verify orchestration behavior without making
// actual LLM API calls. It provides:
//   - Configurable responses, returned in order
//   - Call history tracking
//   - Error injection, globally or per model name
//   - Thread-safe operation
//
// Example usage:
//
//	mock := &MockProvider{
//	    ProviderType: ProviderOpenAI,
//	    Responses: []GenerateOut{
//	        {Content: "First verdict"},
//	        {Content: "Second verdict"},
//	    },
//	}
//
// Example with error injection for a single model:
//
//	mock := &MockProvider{
//	    ProviderType: ProviderGoogle,
//	    Responses:    []GenerateOut{{Content: "ok"}},
//	    ErrFor:       map[string]error{"flash": errors.New("rate limited")},
//	}
type MockProvider struct {
	// ProviderType is returned by Type(). Defaults to ProviderCustom.
	ProviderType ProviderType

	// Responses contains the sequence of responses to return.
	// Each call returns the next response; the last response repeats.
	Responses []GenerateOut

	// Err, if set, is returned by every GenerateContent call.
	Err error

	// ErrFor maps model names to errors, for failing selected models
	// while others succeed.
	ErrFor map[string]error

	// Calls records every GenerateContent invocation.
	Calls []GenerateRequest

	mu        sync.Mutex
	callIndex int
}

// GenerateContent implements the Provider interface.
//
// Always records the call in Calls, including failed ones.
func (m *MockProvider) GenerateContent(ctx context.Context, req GenerateRequest) (GenerateOut, error) {
	if ctx.Err() != nil {
		return GenerateOut{}, ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, req)

	if m.Err != nil {
		return GenerateOut{}, m.Err
	}
	if err, ok := m.ErrFor[req.Model]; ok {
		return GenerateOut{}, err
	}

	if len(m.Responses) == 0 {
		return GenerateOut{}, nil
	}

	idx := m.callIndex
	if idx >= len(m.Responses) {
		idx = len(m.Responses) - 1 // repeat last response
	} else {
		m.callIndex++
	}

	return m.Responses[idx], nil
}

// Type implements the Provider interface.
func (m *MockProvider) Type() ProviderType {
	if m.ProviderType == "" {
		return ProviderCustom
	}
	return m.ProviderType
}

// Reset clears the call history and response index for reuse across tests.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = nil
	m.callIndex = 0
}

// CallCount returns the number of GenerateContent invocations so far.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Calls)
}
