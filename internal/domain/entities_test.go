package domain

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func newTestListing() *Listing {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return NewListing(1, "alice", "Alice", Item{Type: "diamond", DisplayName: "Diamond", Quantity: 3},
		decimal.NewFromInt(50), created, time.Hour)
}

func TestListingResolvesOnce(t *testing.T) {
	l := newTestListing()
	at := l.CreatedAt.Add(time.Minute)

	if l.TryResolve(StatusSold, at) {
		t.Fatalf("TryResolve accepted Sold")
	}
	if l.TryResolve(StatusSettling, at) {
		t.Fatalf("TryResolve accepted Settling")
	}
	if !l.TryResolve(StatusCancelled, at) {
		t.Fatalf("TryResolve(Cancelled) failed on active listing")
	}
	if l.TryResolve(StatusExpired, at) {
		t.Fatalf("second TryResolve succeeded")
	}
	if l.TryClaim("bob", at) {
		t.Fatalf("claim succeeded on cancelled listing")
	}
	if l.Status() != StatusCancelled || !l.ResolvedAt().Equal(at) {
		t.Fatalf("status = %s at %s", l.Status(), l.ResolvedAt())
	}
}

func TestListingClaimLifecycle(t *testing.T) {
	l := newTestListing()
	at := l.CreatedAt.Add(time.Minute)

	if !l.TryClaim("bob", at) {
		t.Fatalf("TryClaim failed on active listing")
	}
	if l.Status() != StatusSettling || l.IsActive() || l.Status().IsTerminal() {
		t.Fatalf("claimed status = %s", l.Status())
	}
	if l.BuyerID() != "" {
		t.Fatalf("buyer visible before settle")
	}
	if l.TryResolve(StatusExpired, at) {
		t.Fatalf("expiry won over a held claim")
	}

	if !l.ReleaseClaim() {
		t.Fatalf("ReleaseClaim failed")
	}
	if !l.IsActive() {
		t.Fatalf("released listing not active")
	}
	if l.Settle(at) {
		t.Fatalf("Settle without claim succeeded")
	}

	if !l.TryClaim("carol", at) || !l.Settle(at.Add(time.Second)) {
		t.Fatalf("claim and settle failed")
	}
	if l.Status() != StatusSold || l.BuyerID() != "carol" {
		t.Fatalf("status = %s buyer = %q", l.Status(), l.BuyerID())
	}
	if l.ReleaseClaim() {
		t.Fatalf("ReleaseClaim undid a sale")
	}
}

func TestListingConcurrentTransitionsHaveOneWinner(t *testing.T) {
	const racers = 64

	l := newTestListing()
	at := l.CreatedAt.Add(time.Minute)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		wins  int
		start = make(chan struct{})
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			var won bool
			switch i % 3 {
			case 0:
				won = l.TryClaim("buyer", at)
			case 1:
				won = l.TryResolve(StatusCancelled, at)
			default:
				won = l.TryResolve(StatusExpired, at)
			}
			if won {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	close(start)
	wg.Wait()

	if wins != 1 {
		t.Fatalf("%d transitions won, want 1", wins)
	}
}

func TestListingExpiryBoundary(t *testing.T) {
	l := newTestListing()

	if l.IsExpired(l.ExpiresAt) {
		t.Fatalf("expired exactly at ExpiresAt")
	}
	if !l.IsExpired(l.ExpiresAt.Add(time.Nanosecond)) {
		t.Fatalf("not expired after ExpiresAt")
	}
}

func TestItemCloneIsIndependent(t *testing.T) {
	orig := Item{Type: "bow", Quantity: 1, Attributes: map[string]string{"power": "5"}}
	clone := orig.Clone()
	clone.Attributes["power"] = "1"

	if orig.Attributes["power"] != "5" {
		t.Fatalf("clone shares attributes")
	}

	l := NewListing(2, "a", "A", orig, decimal.NewFromInt(1), time.Now(), time.Minute)
	orig.Attributes["power"] = "0"
	if l.Item.Attributes["power"] != "5" {
		t.Fatalf("listing shares attributes with caller")
	}
}

func TestListingView(t *testing.T) {
	l := newTestListing()
	l.TryClaim("bob", l.CreatedAt)
	l.Settle(l.CreatedAt)

	v := l.View()
	if v.Status != "sold" || v.BuyerID != "bob" || v.ID != 1 || !v.AskPrice.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("view = %+v", v)
	}
}
