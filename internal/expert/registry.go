package expert

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/Strob0t/TwinForge/internal/domain"
)

// Registry is the immutable set of experts built at startup.
type Registry struct {
	agents map[string]*Agent
	keys   []string
}

// Standard returns the financial, utility and vehicle experts.
func Standard() []Spec {
	return []Spec{Financial(), Utility(), Vehicle()}
}

// NewRegistry validates specs, wraps each in an Agent and marks it
// initialized. Duplicate keys are rejected.
func NewRegistry(specs ...Spec) (*Registry, error) {
	r := &Registry{agents: make(map[string]*Agent, len(specs))}
	for i := range specs {
		spec := specs[i]
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("register expert: %w", err)
		}
		if _, dup := r.agents[spec.Key]; dup {
			return nil, fmt.Errorf("register expert %s: %w: duplicate key", spec.Key, domain.ErrValidation)
		}
		r.agents[spec.Key] = NewAgent(spec)
		r.keys = append(r.keys, spec.Key)
	}
	sort.Strings(r.keys)

	for _, k := range r.keys {
		r.agents[k].markInitialized()
		slog.Info("expert registered", "key", k, "name", r.agents[k].Name())
	}
	return r, nil
}

// Get returns the expert registered under key.
func (r *Registry) Get(key string) (*Agent, bool) {
	if r == nil {
		return nil, false
	}
	a, ok := r.agents[key]
	return a, ok
}

// Keys returns the registered keys in sorted order.
func (r *Registry) Keys() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.keys...)
}

// Agents returns the experts in key order.
func (r *Registry) Agents() []*Agent {
	if r == nil {
		return nil
	}
	out := make([]*Agent, 0, len(r.keys))
	for _, k := range r.keys {
		out = append(out, r.agents[k])
	}
	return out
}

// Len returns the number of registered experts.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.keys)
}

// Statuses returns every expert's status keyed by registry key.
func (r *Registry) Statuses() map[string]Status {
	out := make(map[string]Status, r.Len())
	for _, a := range r.Agents() {
		out[a.Key()] = a.Status()
	}
	return out
}
