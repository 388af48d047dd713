package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"auction-house/internal/infrastructure/websocket"
	"auction-house/pkg/logger"

	gws "github.com/gorilla/websocket"
)

type countingDeliverer struct {
	mu     sync.Mutex
	actors []string
}

func (d *countingDeliverer) DeliverPendingReturns(_ context.Context, actorID string) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.actors = append(d.actors, actorID)
	return 0, nil
}

func (d *countingDeliverer) calls() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.actors...)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestGatewaySessionsDrivePresence(t *testing.T) {
	log := logger.NewNop()
	cm := websocket.NewConnectionManager(log)
	deliverer := &countingDeliverer{}
	server := httptest.NewServer(NewGatewayRouter(cm, deliverer, log))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	actor, _, err := gws.DefaultDialer.Dial(wsURL+"/ws/actors/alice", nil)
	if err != nil {
		t.Fatalf("dial actor: %v", err)
	}
	feed, _, err := gws.DefaultDialer.Dial(wsURL+"/ws/feed", nil)
	if err != nil {
		t.Fatalf("dial feed: %v", err)
	}
	defer feed.Close()

	waitFor(t, "alice online", func() bool { return cm.IsOnline("alice") })
	waitFor(t, "pending return delivery", func() bool { return len(deliverer.calls()) > 0 })
	if calls := deliverer.calls(); len(calls) != 1 || calls[0] != "alice" {
		t.Fatalf("pending returns delivered for %v", calls)
	}

	notifier := websocket.NewWebSocketNotifier(cm)
	if err := notifier.Notify(context.Background(), "alice", "market.sold", map[string]string{"listing_id": "3"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	actor.SetReadDeadline(time.Now().Add(2 * time.Second))
	var note map[string]interface{}
	if err := actor.ReadJSON(&note); err != nil {
		t.Fatalf("read notification: %v", err)
	}
	if note["type"] != "notification" || note["key"] != "market.sold" {
		t.Fatalf("notification = %v", note)
	}

	if err := actor.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	var pong map[string]string
	if err := actor.ReadJSON(&pong); err != nil || pong["type"] != "pong" {
		t.Fatalf("pong = %v (%v)", pong, err)
	}

	// Feed registration happens after the upgrade returns; retry until it lands.
	feed.SetReadDeadline(time.Now().Add(2 * time.Second))
	received := make(chan map[string]string, 1)
	go func() {
		var msg map[string]string
		if err := feed.ReadJSON(&msg); err == nil {
			received <- msg
		}
	}()
	waitFor(t, "feed message", func() bool {
		cm.BroadcastFeed(map[string]string{"type": "listing_created"})
		select {
		case msg := <-received:
			return msg["type"] == "listing_created"
		default:
			return false
		}
	})

	actor.Close()
	waitFor(t, "alice offline", func() bool { return !cm.IsOnline("alice") })
}

func TestGatewayHealth(t *testing.T) {
	log := logger.NewNop()
	router := NewGatewayRouter(websocket.NewConnectionManager(log), nil, log)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatalf("CORS header missing")
	}
}
