package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Strob0t/TwinForge/internal/port/broadcast"
)

var _ broadcast.Broadcaster = (*Hub)(nil)

// BroadcastEvent sends payload to the clients subscribed to eventType.
// Nothing is encoded when no client wants the event.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	if !h.hasSubscriber(eventType) {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "encode ws event", "type", eventType, "error", err)
		return
	}
	h.Broadcast(ctx, Message{Type: eventType, Payload: data})
}

func (h *Hub) hasSubscriber(eventType string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns {
		if c.wants(eventType) {
			return true
		}
	}
	return false
}
