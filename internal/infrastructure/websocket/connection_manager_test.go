package websocket

import (
	"context"
	"errors"
	"sync"
	"testing"

	"auction-house/pkg/logger"
)

type fakeConn struct {
	actorID string
	failing bool

	mu     sync.Mutex
	sent   []interface{}
	closed bool
}

func (c *fakeConn) Send(message interface{}) error {
	if c.failing {
		return errors.New("broken pipe")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, message)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) ActorID() string { return c.actorID }

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}

func TestConnectionManagerPresence(t *testing.T) {
	cm := NewConnectionManager(logger.NewNop())
	first := &fakeConn{actorID: "alice"}
	second := &fakeConn{actorID: "alice"}

	cm.RegisterConnection(first)
	cm.RegisterConnection(second)
	if !cm.IsOnline("alice") || cm.IsOnline("bob") {
		t.Fatalf("presence wrong after register")
	}

	cm.UnregisterConnection(first)
	if !cm.IsOnline("alice") {
		t.Fatalf("alice offline with one session left")
	}
	cm.UnregisterConnection(second)
	if cm.IsOnline("alice") {
		t.Fatalf("alice online with no sessions")
	}
}

func TestConnectionManagerNotifyReachesEverySession(t *testing.T) {
	cm := NewConnectionManager(logger.NewNop())
	good := &fakeConn{actorID: "alice"}
	broken := &fakeConn{actorID: "alice", failing: true}
	other := &fakeConn{actorID: "bob"}
	cm.RegisterConnection(broken)
	cm.RegisterConnection(good)
	cm.RegisterConnection(other)

	notifier := NewWebSocketNotifier(cm)
	if err := notifier.Notify(context.Background(), "alice", "market.sold", map[string]string{"listing_id": "1"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	if good.count() != 1 || other.count() != 0 {
		t.Fatalf("sent good=%d other=%d", good.count(), other.count())
	}
	msg := good.sent[0].(map[string]interface{})
	if msg["type"] != "notification" || msg["key"] != "market.sold" {
		t.Fatalf("message = %v", msg)
	}
}

func TestConnectionManagerFeed(t *testing.T) {
	cm := NewConnectionManager(logger.NewNop())
	a := &fakeConn{}
	b := &fakeConn{}
	cm.RegisterFeed(a)
	cm.RegisterFeed(b)

	cm.BroadcastFeed(map[string]string{"type": "listing_created"})
	cm.UnregisterFeed(b)
	cm.BroadcastFeed(map[string]string{"type": "listing_sold"})

	if a.count() != 2 || b.count() != 1 {
		t.Fatalf("feed counts a=%d b=%d", a.count(), b.count())
	}
	if cm.IsOnline("") {
		t.Fatalf("feed subscribers count as online actors")
	}

	actor := &fakeConn{actorID: "alice"}
	cm.RegisterConnection(actor)
	cm.CloseAll()
	if !a.closed || !actor.closed || cm.IsOnline("alice") {
		t.Fatalf("CloseAll left connections open")
	}
}
