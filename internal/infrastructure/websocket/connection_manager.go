package websocket

import (
	"auction-house/internal/domain"
	"auction-house/pkg/logger"
	"sync"
)

// ConnectionManager tracks actor sessions and public feed subscribers. An
// actor with at least one open session counts as online.
type ConnectionManager struct {
	actors map[string][]domain.WebSocketConnection // actorID -> sessions
	feed   map[domain.WebSocketConnection]struct{}
	mutex  sync.RWMutex
	log    logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		actors: make(map[string][]domain.WebSocketConnection),
		feed:   make(map[domain.WebSocketConnection]struct{}),
		log:    log,
	}
}

func (cm *ConnectionManager) RegisterConnection(conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.actors[conn.ActorID()] = append(cm.actors[conn.ActorID()], conn)

	cm.log.Info("Connection registered", "actor_id", conn.ActorID())
	return nil
}

func (cm *ConnectionManager) UnregisterConnection(conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	actorID := conn.ActorID()
	if sessions, exists := cm.actors[actorID]; exists {
		var remaining []domain.WebSocketConnection
		for _, existing := range sessions {
			if existing != conn {
				remaining = append(remaining, existing)
			}
		}

		if len(remaining) == 0 {
			delete(cm.actors, actorID)
		} else {
			cm.actors[actorID] = remaining
		}
	}

	cm.log.Info("Connection unregistered", "actor_id", actorID)
	return nil
}

func (cm *ConnectionManager) RegisterFeed(conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	cm.feed[conn] = struct{}{}
	return nil
}

func (cm *ConnectionManager) UnregisterFeed(conn domain.WebSocketConnection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	delete(cm.feed, conn)
	return nil
}

func (cm *ConnectionManager) IsOnline(actorID string) bool {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	return len(cm.actors[actorID]) > 0
}

func (cm *ConnectionManager) NotifyActor(actorID string, message interface{}) error {
	cm.mutex.RLock()
	sessions := append([]domain.WebSocketConnection(nil), cm.actors[actorID]...)
	cm.mutex.RUnlock()

	for _, conn := range sessions {
		if err := conn.Send(message); err != nil {
			cm.log.Error("Failed to send message", "actor_id", actorID, "error", err)
		}
	}

	return nil
}

func (cm *ConnectionManager) BroadcastFeed(message interface{}) error {
	cm.mutex.RLock()
	subscribers := make([]domain.WebSocketConnection, 0, len(cm.feed))
	for conn := range cm.feed {
		subscribers = append(subscribers, conn)
	}
	cm.mutex.RUnlock()

	for _, conn := range subscribers {
		if err := conn.Send(message); err != nil {
			cm.log.Error("Failed to send feed message", "actor_id", conn.ActorID(), "error", err)
			// Continue to other subscribers
		}
	}

	return nil
}

func (cm *ConnectionManager) CloseAll() error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	for actorID, sessions := range cm.actors {
		for _, conn := range sessions {
			if err := conn.Close(); err != nil {
				cm.log.Error("Failed to close connection", "actor_id", actorID, "error", err)
			}
		}
	}
	for conn := range cm.feed {
		if err := conn.Close(); err != nil {
			cm.log.Error("Failed to close feed connection", "error", err)
		}
	}

	cm.actors = make(map[string][]domain.WebSocketConnection)
	cm.feed = make(map[domain.WebSocketConnection]struct{})
	return nil
}
