package domain

import (
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
)

type ListingStatus int

const (
	StatusActive ListingStatus = iota
	// StatusSettling is held by an in-flight purchase between its winning
	// claim and the final Sold transition. It is not terminal.
	StatusSettling
	StatusSold
	StatusCancelled
	StatusExpired
)

func (s ListingStatus) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusSettling:
		return "settling"
	case StatusSold:
		return "sold"
	case StatusCancelled:
		return "cancelled"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

func (s ListingStatus) IsTerminal() bool {
	return s == StatusSold || s == StatusCancelled || s == StatusExpired
}

// Item is a snapshot of the traded good. Attributes carry host specific
// data (enchantments, lore, durability) that the marketplace never inspects.
type Item struct {
	Type        string            `json:"type"`
	DisplayName string            `json:"display_name"`
	Quantity    int               `json:"quantity"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

// Clone returns a copy that shares no mutable state with i.
func (i Item) Clone() Item {
	c := i
	if i.Attributes != nil {
		c.Attributes = make(map[string]string, len(i.Attributes))
		for k, v := range i.Attributes {
			c.Attributes[k] = v
		}
	}
	return c
}

// Resolution records how a listing left the Active state.
type Resolution struct {
	Status     ListingStatus
	BuyerID    string
	ResolvedAt time.Time
}

// Listing is one marketplace entry. All exported fields are fixed at
// creation; the lifecycle lives in a single atomic resolution pointer where
// nil means Active.
type Listing struct {
	ID         uint64
	SellerID   string
	SellerName string
	Item       Item
	AskPrice   decimal.Decimal
	CreatedAt  time.Time
	ExpiresAt  time.Time

	resolution atomic.Pointer[Resolution]
}

func NewListing(id uint64, sellerID, sellerName string, item Item, price decimal.Decimal,
	createdAt time.Time, duration time.Duration) *Listing {
	return &Listing{
		ID:         id,
		SellerID:   sellerID,
		SellerName: sellerName,
		Item:       item.Clone(),
		AskPrice:   price,
		CreatedAt:  createdAt,
		ExpiresAt:  createdAt.Add(duration),
	}
}

func (l *Listing) Status() ListingStatus {
	if r := l.resolution.Load(); r != nil {
		return r.Status
	}
	return StatusActive
}

func (l *Listing) IsActive() bool {
	return l.resolution.Load() == nil
}

// BuyerID is empty unless the listing is Sold.
func (l *Listing) BuyerID() string {
	if r := l.resolution.Load(); r != nil && r.Status == StatusSold {
		return r.BuyerID
	}
	return ""
}

func (l *Listing) ResolvedAt() time.Time {
	if r := l.resolution.Load(); r != nil {
		return r.ResolvedAt
	}
	return time.Time{}
}

func (l *Listing) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// TryResolve moves an Active listing straight to a terminal status. Only one
// caller can ever succeed.
func (l *Listing) TryResolve(status ListingStatus, at time.Time) bool {
	if !status.IsTerminal() || status == StatusSold {
		return false
	}
	return l.resolution.CompareAndSwap(nil, &Resolution{Status: status, ResolvedAt: at})
}

// TryClaim reserves an Active listing for a purchase. The claim must be
// finished with Settle or ReleaseClaim.
func (l *Listing) TryClaim(buyerID string, at time.Time) bool {
	return l.resolution.CompareAndSwap(nil, &Resolution{Status: StatusSettling, BuyerID: buyerID, ResolvedAt: at})
}

// Settle turns a held claim into Sold.
func (l *Listing) Settle(at time.Time) bool {
	cur := l.resolution.Load()
	if cur == nil || cur.Status != StatusSettling {
		return false
	}
	return l.resolution.CompareAndSwap(cur, &Resolution{Status: StatusSold, BuyerID: cur.BuyerID, ResolvedAt: at})
}

// ReleaseClaim returns a claimed listing to Active after a failed purchase.
func (l *Listing) ReleaseClaim() bool {
	cur := l.resolution.Load()
	if cur == nil || cur.Status != StatusSettling {
		return false
	}
	return l.resolution.CompareAndSwap(cur, nil)
}

// ListingView is the serialisable form of a Listing.
type ListingView struct {
	ID         uint64          `json:"id"`
	SellerID   string          `json:"seller_id"`
	SellerName string          `json:"seller_name"`
	Item       Item            `json:"item"`
	Category   string          `json:"category,omitempty"`
	AskPrice   decimal.Decimal `json:"ask_price"`
	Status     string          `json:"status"`
	BuyerID    string          `json:"buyer_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

func (l *Listing) View() ListingView {
	return ListingView{
		ID:         l.ID,
		SellerID:   l.SellerID,
		SellerName: l.SellerName,
		Item:       l.Item.Clone(),
		AskPrice:   l.AskPrice,
		Status:     l.Status().String(),
		BuyerID:    l.BuyerID(),
		CreatedAt:  l.CreatedAt,
		ExpiresAt:  l.ExpiresAt,
	}
}

type ListingEvent struct {
	EventID   string           `json:"event_id"`
	Type      ListingEventType `json:"type"`
	ListingID uint64           `json:"listing_id"`
	SellerID  string           `json:"seller_id"`
	BuyerID   string           `json:"buyer_id,omitempty"`
	ItemType  string           `json:"item_type"`
	Quantity  int              `json:"quantity"`
	Price     decimal.Decimal  `json:"price"`
	Timestamp time.Time        `json:"timestamp"`
}

type ListingEventType string

const (
	ListingCreated   ListingEventType = "listing_created"
	ListingSold      ListingEventType = "listing_sold"
	ListingCancelled ListingEventType = "listing_cancelled"
	ListingExpired   ListingEventType = "listing_expired"
	ListingRemoved   ListingEventType = "listing_removed"
)

// PendingReturn is an item owed to an actor that could not be delivered
// when its listing ended.
type PendingReturn struct {
	ID        string    `json:"id"`
	ActorID   string    `json:"actor_id"`
	Item      Item      `json:"item"`
	ListingID uint64    `json:"listing_id"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

type MarketStats struct {
	ActiveCount      int             `json:"active_count"`
	CountsByCategory map[string]int  `json:"counts_by_category"`
	TotalActiveValue decimal.Decimal `json:"total_active_value"`
	AveragePrice     decimal.Decimal `json:"average_price"`
}

type SellerRank struct {
	SellerID  string `json:"seller_id"`
	SoldCount int    `json:"sold_count"`
}

// SweepReport summarises one expiry cycle.
type SweepReport struct {
	Expired   int
	Returned  int
	Disposed  int
	Failed    int
	Delivered int
	Pruned    int
}
