package memory

import (
	"auction-house/internal/domain"
	"sync"
	"time"
)

// HistoryStore keeps resolved listings bounded by count and age. Sold counts
// per seller are cumulative and survive pruning.
type HistoryStore struct {
	entries    []*domain.Listing
	byID       map[uint64]*domain.Listing
	soldCounts map[string]int
	maxEntries int
	maxAge     time.Duration
	mutex      sync.RWMutex
}

func NewHistoryStore(maxEntries int, maxAge time.Duration) *HistoryStore {
	return &HistoryStore{
		byID:       make(map[uint64]*domain.Listing),
		soldCounts: make(map[string]int),
		maxEntries: maxEntries,
		maxAge:     maxAge,
	}
}

func (h *HistoryStore) Archive(listing *domain.Listing) {
	if !listing.Status().IsTerminal() {
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	if _, seen := h.byID[listing.ID]; seen {
		return
	}
	h.entries = append(h.entries, listing)
	h.byID[listing.ID] = listing
	if listing.Status() == domain.StatusSold {
		h.soldCounts[listing.SellerID]++
	}
	if h.maxEntries > 0 && len(h.entries) > h.maxEntries {
		drop := len(h.entries) - h.maxEntries
		for _, l := range h.entries[:drop] {
			delete(h.byID, l.ID)
		}
		h.entries = append([]*domain.Listing(nil), h.entries[drop:]...)
	}
}

func (h *HistoryStore) Get(listingID uint64) (*domain.Listing, bool) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	l, ok := h.byID[listingID]
	return l, ok
}

func (h *HistoryStore) BySeller(sellerID string) []*domain.Listing {
	return h.filter(func(l *domain.Listing) bool {
		return l.SellerID == sellerID
	})
}

func (h *HistoryStore) SoldBySeller(sellerID string) []*domain.Listing {
	return h.filter(func(l *domain.Listing) bool {
		return l.SellerID == sellerID && l.Status() == domain.StatusSold
	})
}

func (h *HistoryStore) SoldCounts() map[string]int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	out := make(map[string]int, len(h.soldCounts))
	for seller, n := range h.soldCounts {
		out[seller] = n
	}
	return out
}

// Prune drops entries resolved before now minus the retention age.
func (h *HistoryStore) Prune(now time.Time) int {
	if h.maxAge <= 0 {
		return 0
	}
	cutoff := now.Add(-h.maxAge)

	h.mutex.Lock()
	defer h.mutex.Unlock()

	kept := h.entries[:0]
	for _, l := range h.entries {
		if l.ResolvedAt().After(cutoff) {
			kept = append(kept, l)
		} else {
			delete(h.byID, l.ID)
		}
	}
	pruned := len(h.entries) - len(kept)
	for i := len(kept); i < len(h.entries); i++ {
		h.entries[i] = nil
	}
	h.entries = kept
	return pruned
}

func (h *HistoryStore) Len() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	return len(h.entries)
}

func (h *HistoryStore) filter(keep func(*domain.Listing) bool) []*domain.Listing {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var out []*domain.Listing
	for _, l := range h.entries {
		if keep(l) {
			out = append(out, l)
		}
	}
	return out
}
