package memory

import (
	"auction-house/internal/domain"
	"sync"
)

// ListingStore is the in-process index of open listings.
type ListingStore struct {
	listings map[uint64]*domain.Listing
	mutex    sync.RWMutex
}

func NewListingStore() *ListingStore {
	return &ListingStore{
		listings: make(map[uint64]*domain.Listing),
	}
}

func (s *ListingStore) Put(listing *domain.Listing) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.listings[listing.ID] = listing
}

func (s *ListingStore) Get(listingID uint64) (*domain.Listing, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	listing, ok := s.listings[listingID]
	return listing, ok
}

func (s *ListingStore) Remove(listingID uint64) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.listings[listingID]; !ok {
		return false
	}
	delete(s.listings, listingID)
	return true
}

// Snapshot copies the current values. The slice is owned by the caller and
// stays valid while the store keeps changing.
func (s *ListingStore) Snapshot() []*domain.Listing {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]*domain.Listing, 0, len(s.listings))
	for _, listing := range s.listings {
		out = append(out, listing)
	}
	return out
}

func (s *ListingStore) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return len(s.listings)
}
