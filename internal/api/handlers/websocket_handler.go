package handlers

import (
	"net/http"

	"auction-house/internal/api/middleware"
	"auction-house/internal/infrastructure/websocket"
	"auction-house/pkg/logger"

	"github.com/gorilla/mux"
)

// NewGatewayRouter wires the websocket gateway routes.
func NewGatewayRouter(connManager *websocket.ConnectionManager, returns websocket.ReturnDeliverer, log logger.Logger) *mux.Router {
	wsHandler := websocket.NewWebSocketHandler(connManager, returns, log)

	router := mux.NewRouter()
	router.Use(middleware.CORSWithLogging(log))

	router.HandleFunc("/ws/actors/{actorID}", wsHandler.HandleActorConnection)
	router.HandleFunc("/ws/feed", wsHandler.HandleFeedConnection)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods(http.MethodGet)

	return router
}
