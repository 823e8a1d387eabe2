package model

import (
	"fmt"
	"sync"
)

// ModelInfo describes one registered model and the provider serving it.
type ModelInfo struct {
	// Name is the model name as callers reference it.
	Name string

	// Provider is the type of the provider serving this model.
	Provider ProviderType
}

// Registry maps model names to providers and answers availability queries.
//
// The registry is an injected collaborator, not global state: each engine
// instance receives the registry it should consult. Registration order is
// preserved so that availability listings, and therefore automatic panel
// selection, are deterministic.
//
// A restriction policy can narrow the visible model set without
// unregistering providers, mirroring deployment-level model allow-lists.
//
// Thread-safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	providers  map[ProviderType]Provider
	models     []ModelInfo         // registration order
	modelIndex map[string]Provider // model name -> provider
	restricted map[string]bool     // nil means no restriction policy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		providers:  make(map[ProviderType]Provider),
		modelIndex: make(map[string]Provider),
	}
}

// Register associates a provider with the model names it serves.
//
// Models keep their registration order in AvailableModels. Registering a
// model name twice overwrites the provider association but keeps the
// original position.
func (r *Registry) Register(p Provider, modelNames ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[p.Type()] = p
	for _, name := range modelNames {
		if _, exists := r.modelIndex[name]; !exists {
			r.models = append(r.models, ModelInfo{Name: name, Provider: p.Type()})
		}
		r.modelIndex[name] = p
	}
}

// Restrict installs a model allow-list. Only the named models are visible
// through AvailableModels when restrictions are respected. Passing no names
// clears the policy.
func (r *Registry) Restrict(modelNames ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(modelNames) == 0 {
		r.restricted = nil
		return
	}
	r.restricted = make(map[string]bool, len(modelNames))
	for _, name := range modelNames {
		r.restricted[name] = true
	}
}

// AvailableModels lists registered models in registration order.
//
// When respectRestrictions is true and a restriction policy is installed,
// only allow-listed models are returned.
func (r *Registry) AvailableModels(respectRestrictions bool) []ModelInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]ModelInfo, 0, len(r.models))
	for _, m := range r.models {
		if respectRestrictions && r.restricted != nil && !r.restricted[m.Name] {
			continue
		}
		out = append(out, m)
	}
	return out
}

// ProviderFor resolves the provider serving a model name.
func (r *Registry) ProviderFor(modelName string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.modelIndex[modelName]
	if !ok {
		return nil, fmt.Errorf("no provider registered for model %q", modelName)
	}
	return p, nil
}
