package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"auction-house/internal/config"
	"auction-house/internal/domain"
	"auction-house/internal/infrastructure/memory"
	"auction-house/pkg/logger"

	"github.com/shopspring/decimal"
)

var testEpoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testEpoch}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type sentNotification struct {
	ActorID string
	Key     string
	Params  map[string]string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *recordingNotifier) Notify(_ context.Context, actorID, key string, params map[string]string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{ActorID: actorID, Key: key, Params: params})
	return nil
}

func (n *recordingNotifier) keysFor(actorID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var keys []string
	for _, s := range n.sent {
		if s.ActorID == actorID {
			keys = append(keys, s.Key)
		}
	}
	return keys
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.ListingEvent
}

func (p *recordingPublisher) PublishListingEvent(_ context.Context, event *domain.ListingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []domain.ListingEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.ListingEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type houseOptions struct {
	slots       int
	maxListings int
	taxRate     string
	opening     string
	policy      string
	wrap        func(*memory.Custody) domain.ItemCustody
	disposal    domain.DisposalPolicy
}

type testMarket struct {
	house    *AuctionHouse
	sweeper  *ExpirySweeper
	wallet   *memory.Wallet
	custody  *memory.Custody
	returns  *memory.PendingReturns
	history  *memory.HistoryStore
	notifier *recordingNotifier
	events   *recordingPublisher
	clock    *fakeClock
}

func newTestMarket(t *testing.T, opts houseOptions) *testMarket {
	t.Helper()

	if opts.slots == 0 {
		opts.slots = 36
	}
	if opts.maxListings == 0 {
		opts.maxListings = 5
	}
	if opts.taxRate == "" {
		opts.taxRate = "0.05"
	}
	if opts.opening == "" {
		opts.opening = "1000"
	}
	if opts.policy == "" {
		opts.policy = config.DisposalQueue
	}

	log := logger.NewNop()
	wallet := memory.NewWallet("$", decimal.RequireFromString(opts.opening))
	custody := memory.NewCustody(opts.slots, nil, log)
	returns := memory.NewPendingReturns()
	history := memory.NewHistoryStore(1000, 24*time.Hour)
	notifier := &recordingNotifier{}
	events := &recordingPublisher{}
	clock := newFakeClock()

	var itemCustody domain.ItemCustody = custody
	if opts.wrap != nil {
		itemCustody = opts.wrap(custody)
	}

	disposal := opts.disposal
	if disposal == nil {
		var err error
		disposal, err = NewDisposalPolicy(opts.policy, returns, custody, log)
		if err != nil {
			t.Fatalf("NewDisposalPolicy: %v", err)
		}
	}

	house := NewAuctionHouse(
		memory.NewListingStore(),
		history,
		returns,
		NewIDAllocator(),
		wallet,
		itemCustody,
		notifier,
		disposal,
		NewCategoryTable(DefaultCategories()),
		NewListingValidator(opts.maxListings, decimal.RequireFromString(opts.taxRate)),
		log,
	)
	house.SetClock(clock.Now)
	house.SetEventPublisher(events)

	return &testMarket{
		house:    house,
		sweeper:  NewExpirySweeper(house, time.Minute, log),
		wallet:   wallet,
		custody:  custody,
		returns:  returns,
		history:  history,
		notifier: notifier,
		events:   events,
		clock:    clock,
	}
}

func sword(qty int) domain.Item {
	return domain.Item{Type: "diamond_sword", DisplayName: "Diamond Sword", Quantity: qty}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// list grants the item to the seller, marks them online and creates a listing.
func (m *testMarket) list(t *testing.T, sellerID string, item domain.Item, price string, duration time.Duration) uint64 {
	t.Helper()

	m.custody.SetOnline(sellerID, true)
	m.custody.Grant(sellerID, item)
	id, err := m.house.Create(context.Background(), sellerID, sellerID, item, dec(price), duration)
	if err != nil {
		t.Fatalf("Create(%s): %v", sellerID, err)
	}
	return id
}

func assertBalance(t *testing.T, w *memory.Wallet, actorID, want string) {
	t.Helper()
	if got := w.Balance(actorID); !got.Equal(dec(want)) {
		t.Fatalf("balance of %s = %s, want %s", actorID, got, want)
	}
}

func countItems(items []domain.Item, itemType string) int {
	n := 0
	for _, it := range items {
		if it.Type == itemType {
			n += it.Quantity
		}
	}
	return n
}
