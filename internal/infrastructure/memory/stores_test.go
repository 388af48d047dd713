package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"auction-house/internal/domain"

	"github.com/shopspring/decimal"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func listing(id uint64, seller string) *domain.Listing {
	return domain.NewListing(id, seller, seller, domain.Item{Type: "stone", DisplayName: "Stone", Quantity: 1},
		decimal.NewFromInt(1), epoch, time.Hour)
}

func sold(id uint64, seller string, at time.Time) *domain.Listing {
	l := listing(id, seller)
	l.TryClaim("buyer", at)
	l.Settle(at)
	return l
}

func cancelled(id uint64, seller string, at time.Time) *domain.Listing {
	l := listing(id, seller)
	l.TryResolve(domain.StatusCancelled, at)
	return l
}

func TestListingStoreSnapshotIsStable(t *testing.T) {
	store := NewListingStore()
	for i := uint64(1); i <= 10; i++ {
		store.Put(listing(i, "alice"))
	}

	snapshot := store.Snapshot()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := uint64(1); i <= 10; i++ {
			store.Remove(i)
		}
	}()
	go func() {
		defer wg.Done()
		for i := uint64(11); i <= 20; i++ {
			store.Put(listing(i, "bob"))
		}
	}()
	wg.Wait()

	if len(snapshot) != 10 {
		t.Fatalf("snapshot changed size to %d", len(snapshot))
	}
	for _, l := range snapshot {
		if l == nil || l.SellerID != "alice" {
			t.Fatalf("snapshot entry changed: %+v", l)
		}
	}
	if store.Len() != 10 {
		t.Fatalf("store len = %d, want 10", store.Len())
	}
	if store.Remove(1) {
		t.Fatalf("Remove of missing id returned true")
	}
}

func TestHistoryStoreIgnoresOpenListings(t *testing.T) {
	h := NewHistoryStore(10, time.Hour)

	h.Archive(listing(1, "alice"))
	claimed := listing(2, "alice")
	claimed.TryClaim("bob", epoch)
	h.Archive(claimed)

	if h.Len() != 0 {
		t.Fatalf("archived %d non-terminal listings", h.Len())
	}
}

func TestHistoryStoreBoundedByCount(t *testing.T) {
	h := NewHistoryStore(3, 0)

	for i := uint64(1); i <= 5; i++ {
		h.Archive(sold(i, "alice", epoch.Add(time.Duration(i)*time.Second)))
	}
	h.Archive(sold(5, "alice", epoch))

	if h.Len() != 3 {
		t.Fatalf("len = %d, want 3", h.Len())
	}
	if _, ok := h.Get(1); ok {
		t.Fatalf("oldest entry still indexed")
	}
	if _, ok := h.Get(5); !ok {
		t.Fatalf("newest entry missing")
	}
	if got := h.SoldCounts()["alice"]; got != 5 {
		t.Fatalf("sold count = %d, want 5", got)
	}
	if got := len(h.SoldBySeller("alice")); got != 3 {
		t.Fatalf("SoldBySeller = %d, want 3", got)
	}
}

func TestHistoryStorePrunesByAge(t *testing.T) {
	h := NewHistoryStore(100, time.Hour)

	h.Archive(sold(1, "alice", epoch))
	h.Archive(cancelled(2, "alice", epoch.Add(30*time.Minute)))
	h.Archive(sold(3, "bob", epoch.Add(90*time.Minute)))

	if n := h.Prune(epoch.Add(100 * time.Minute)); n != 2 {
		t.Fatalf("pruned %d, want 2", n)
	}
	if got := h.BySeller("alice"); len(got) != 0 {
		t.Fatalf("alice history = %d entries", len(got))
	}
	if _, ok := h.Get(3); !ok {
		t.Fatalf("recent entry pruned")
	}
	if got := h.SoldCounts(); got["alice"] != 1 || got["bob"] != 1 {
		t.Fatalf("sold counts = %v", got)
	}
}

func TestPendingReturnsQueue(t *testing.T) {
	p := NewPendingReturns()
	ctx := context.Background()

	for _, r := range []*domain.PendingReturn{
		{ID: "r1", ActorID: "zed"},
		{ID: "r2", ActorID: "amy"},
		{ID: "r3", ActorID: "amy"},
	} {
		if err := p.Enqueue(ctx, r); err != nil {
			t.Fatalf("Enqueue: %v", err)
		}
	}

	actors, _ := p.Actors(ctx)
	if len(actors) != 2 || actors[0] != "amy" || actors[1] != "zed" {
		t.Fatalf("actors = %v", actors)
	}

	queued, _ := p.ListForActor(ctx, "amy")
	if len(queued) != 2 || queued[0].ID != "r2" {
		t.Fatalf("amy queue = %+v", queued)
	}

	if ok, err := p.Claim(ctx, "r2"); err != nil || !ok {
		t.Fatalf("Claim(r2) = %v, %v", ok, err)
	}
	if ok, _ := p.Claim(ctx, "r2"); ok {
		t.Fatalf("r2 claimed twice")
	}
	if ok, err := p.Claim(ctx, "missing"); err != nil || ok {
		t.Fatalf("Claim(missing) = %v, %v", ok, err)
	}
	p.Claim(ctx, "r1")

	actors, _ = p.Actors(ctx)
	if len(actors) != 1 || actors[0] != "amy" {
		t.Fatalf("actors after claim = %v", actors)
	}
	// Lists handed out earlier are not affected by later claims.
	if len(queued) != 2 || queued[1].ID != "r3" {
		t.Fatalf("earlier list mutated: %+v", queued)
	}
}
