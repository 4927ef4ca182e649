package filters

import (
	"fmt"
	"sync"

	"inklore/server/internal/interfaces"
)

// Registry maps string keys to filter functions. It replaces on-disk plugin
// loading: filters are registered explicitly at startup and looked up by the
// keys named in configuration.
type Registry struct {
	mu      sync.RWMutex
	input   map[string]interfaces.Filter
	output  map[string]interfaces.Filter
	display map[string]interfaces.DisplayFilter
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		input:   make(map[string]interfaces.Filter),
		output:  make(map[string]interfaces.Filter),
		display: make(map[string]interfaces.DisplayFilter),
	}
}

// RegisterInput registers an input filter under a key, replacing any
// previous registration.
func (r *Registry) RegisterInput(key string, f interfaces.Filter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.input[key] = f
}

// RegisterOutput registers an output filter under a key.
func (r *Registry) RegisterOutput(key string, f interfaces.Filter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.output[key] = f
}

// RegisterDisplay registers a display filter under a key.
func (r *Registry) RegisterDisplay(key string, f interfaces.DisplayFilter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.display[key] = f
}

// InputChain resolves the named input filters in order.
func (r *Registry) InputChain(keys []string) ([]interfaces.Filter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := make([]interfaces.Filter, 0, len(keys))
	for _, k := range keys {
		f, ok := r.input[k]
		if !ok {
			return nil, fmt.Errorf("input filter not registered: %s", k)
		}
		chain = append(chain, f)
	}
	return chain, nil
}

// OutputChain resolves the named output filters in order.
func (r *Registry) OutputChain(keys []string) ([]interfaces.Filter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	chain := make([]interfaces.Filter, 0, len(keys))
	for _, k := range keys {
		f, ok := r.output[k]
		if !ok {
			return nil, fmt.Errorf("output filter not registered: %s", k)
		}
		chain = append(chain, f)
	}
	return chain, nil
}

// Display resolves a display filter by key.
func (r *Registry) Display(key string) (interfaces.DisplayFilter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.display[key]
	if !ok {
		return nil, fmt.Errorf("display filter not registered: %s", key)
	}
	return f, nil
}

// Apply runs text through a filter chain in registration order.
func Apply(chain []interfaces.Filter, text string) string {
	for _, f := range chain {
		text = f(text)
	}
	return text
}
