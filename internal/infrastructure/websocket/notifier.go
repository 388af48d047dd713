package websocket

import (
	"auction-house/internal/domain"
	"context"
	"time"
)

// WebSocketNotifier implements domain.Notifier over live actor sessions.
type WebSocketNotifier struct {
	connManager domain.ConnectionManager
}

func NewWebSocketNotifier(connManager domain.ConnectionManager) *WebSocketNotifier {
	return &WebSocketNotifier{connManager: connManager}
}

func (n *WebSocketNotifier) Notify(ctx context.Context, actorID, eventKey string, params map[string]string) error {
	return n.connManager.NotifyActor(actorID, map[string]interface{}{
		"type":      "notification",
		"key":       eventKey,
		"params":    params,
		"timestamp": time.Now(),
	})
}
