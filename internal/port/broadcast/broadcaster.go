// Package broadcast defines the port for broadcasting real-time events to connected clients.
package broadcast

import "context"

// Broadcaster sends real-time events to all connected clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to all connected clients.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Event types emitted by the principal agent and the job service.
const (
	EventRequestReceived   = "request.received"
	EventExpertCompleted   = "expert.completed"
	EventResponsePublished = "response.published"
	EventResponseWithheld  = "response.withheld"
	EventJobUpdated        = "job.updated"
)
