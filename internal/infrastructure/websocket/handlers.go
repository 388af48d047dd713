package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"auction-house/internal/domain"
	"auction-house/pkg/logger"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins; the gateway sits behind the host's proxy
	},
}

// ReturnDeliverer hands queued items to an actor that just came online.
type ReturnDeliverer interface {
	DeliverPendingReturns(ctx context.Context, actorID string) (int, error)
}

type WebSocketHandler struct {
	connManager domain.ConnectionManager
	returns     ReturnDeliverer
	log         logger.Logger
}

func NewWebSocketHandler(connManager domain.ConnectionManager, returns ReturnDeliverer, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		connManager: connManager,
		returns:     returns,
		log:         log,
	}
}

// HandleActorConnection opens an actor session. While the session is open
// the actor is reachable for returns and notifications.
func (h *WebSocketHandler) HandleActorConnection(w http.ResponseWriter, r *http.Request) {
	actorID := mux.Vars(r)["actorID"]
	if actorID == "" {
		http.Error(w, "actor id required", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	wsConn := NewWebSocketConnection(conn, actorID)
	if err := h.connManager.RegisterConnection(wsConn); err != nil {
		h.log.Error("Failed to register connection", "error", err)
		conn.Close()
		return
	}

	if h.returns != nil {
		if n, err := h.returns.DeliverPendingReturns(r.Context(), actorID); err != nil {
			h.log.Error("Failed to deliver pending returns", "actor_id", actorID, "error", err)
		} else if n > 0 {
			h.log.Info("Delivered pending returns on connect", "actor_id", actorID, "count", n)
		}
	}

	go h.handleMessages(wsConn, func() {
		h.connManager.UnregisterConnection(wsConn)
	})
}

// HandleFeedConnection subscribes an anonymous client to public listing updates.
func (h *WebSocketHandler) HandleFeedConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	wsConn := NewWebSocketConnection(conn, "")
	if err := h.connManager.RegisterFeed(wsConn); err != nil {
		h.log.Error("Failed to register feed connection", "error", err)
		conn.Close()
		return
	}

	go h.handleMessages(wsConn, func() {
		h.connManager.UnregisterFeed(wsConn)
	})
}

func (h *WebSocketHandler) handleMessages(conn *WebSocketConnection, unregister func()) {
	defer func() {
		unregister()
		conn.Close()
	}()

	for {
		var msg map[string]interface{}
		if err := conn.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("Connection read ended", "actor_id", conn.ActorID(), "error", err)
			}
			return
		}

		msgType, ok := msg["type"].(string)
		if !ok {
			continue
		}

		switch msgType {
		case "ping":
			conn.Send(map[string]string{"type": "pong"})
		}
	}
}

type WebSocketConnection struct {
	conn    *websocket.Conn
	actorID string
	writeMu sync.Mutex
}

func NewWebSocketConnection(conn *websocket.Conn, actorID string) *WebSocketConnection {
	return &WebSocketConnection{
		conn:    conn,
		actorID: actorID,
	}
}

// Send writes one JSON message. gorilla/websocket allows a single writer at
// a time, so writes are serialised.
func (wsc *WebSocketConnection) Send(message interface{}) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()

	wsc.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return wsc.conn.WriteJSON(message)
}

func (wsc *WebSocketConnection) Close() error {
	return wsc.conn.Close()
}

func (wsc *WebSocketConnection) ActorID() string {
	return wsc.actorID
}
