package service

import (
	"log/slog"
	"strings"

	"github.com/Strob0t/TwinForge/internal/domain/request"
	"github.com/Strob0t/TwinForge/internal/expert"
)

// RouterService selects the experts that take part in a request.
type RouterService struct {
	registry *expert.Registry
}

// NewRouterService creates a RouterService over registry.
func NewRouterService(registry *expert.Registry) *RouterService {
	return &RouterService{registry: registry}
}

// SelectExperts matches the lowercased request type against each expert's
// route keywords. When nothing matches, every registered expert is
// selected. The result is ordered by registry key and the call has no side
// effects.
func (s *RouterService) SelectExperts(req *request.Request) []*expert.Agent {
	all := s.registry.Agents()
	if len(all) == 0 {
		slog.Warn("router: no expert agents registered")
		return nil
	}

	t := req.LowerType()
	var selected []*expert.Agent
	for _, a := range all {
		if matchesAny(t, a.RouteKeywords()) {
			selected = append(selected, a)
		}
	}

	if len(selected) == 0 {
		slog.Info("router: no specific expert type detected, using all experts", "request_type", req.Type)
		return all
	}
	return selected
}

func matchesAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// agentKeys returns the registry keys of agents, in order.
func agentKeys(agents []*expert.Agent) []string {
	keys := make([]string, 0, len(agents))
	for _, a := range agents {
		keys = append(keys, a.Key())
	}
	return keys
}
