package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RouteOptions holds the optional route-level collaborators. Nil fields are
// skipped.
type RouteOptions struct {
	// RateLimit guards every processing and API route.
	RateLimit func(http.Handler) http.Handler
	// Idempotency wraps the request-submitting POST routes.
	Idempotency func(http.Handler) http.Handler
	// WebSocket serves GET /ws.
	WebSocket http.HandlerFunc
	// Extra mounts additional route sets (A2A, MCP) on the root router.
	Extra []func(chi.Router)
}

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers, opts RouteOptions) {
	r.Get("/health", h.Health)

	if opts.WebSocket != nil {
		r.Get("/ws", opts.WebSocket)
	}

	r.Group(func(r chi.Router) {
		if opts.RateLimit != nil {
			r.Use(opts.RateLimit)
		}

		r.Group(func(r chi.Router) {
			if opts.Idempotency != nil {
				r.Use(opts.Idempotency)
			}
			r.Post("/process", h.Process)
			r.Post("/api/request", h.SubmitRequest)
		})

		r.Get("/api/requests/{processing_id}", h.GetJob)
		r.Get("/api/responses", h.ListResponses)
		r.Get("/api/agents/status", h.AgentsStatus)
		r.Get("/api/workflows/{request_id}", h.GetWorkflow)
	})

	for _, mount := range opts.Extra {
		mount(r)
	}
}
