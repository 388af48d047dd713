package repositories

import (
	"auction-house/internal/domain"
	"context"
	"time"
)

// ListingStore holds the listings that are still open. Implementations must
// be safe for concurrent use without external locking.
type ListingStore interface {
	Put(listing *domain.Listing)
	Get(listingID uint64) (*domain.Listing, bool)
	Remove(listingID uint64) bool
	// Snapshot returns a point-in-time copy of the stored listings in no
	// particular order.
	Snapshot() []*domain.Listing
	Len() int
}

// HistoryStore keeps resolved listings under a retention policy.
type HistoryStore interface {
	Archive(listing *domain.Listing)
	Get(listingID uint64) (*domain.Listing, bool)
	BySeller(sellerID string) []*domain.Listing
	SoldBySeller(sellerID string) []*domain.Listing
	SoldCounts() map[string]int
	Prune(now time.Time) int
}

type PendingReturnRepository interface {
	Enqueue(ctx context.Context, ret *domain.PendingReturn) error
	ListForActor(ctx context.Context, actorID string) ([]*domain.PendingReturn, error)
	// Claim removes a queued return and reports whether this caller got it.
	// A return is handed out at most once.
	Claim(ctx context.Context, returnID string) (bool, error)
	Actors(ctx context.Context) ([]string, error)
}
