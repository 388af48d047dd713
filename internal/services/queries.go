package services

import (
	"auction-house/internal/domain"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// ListActive returns open listings, newest first.
func (ah *AuctionHouse) ListActive() []*domain.Listing {
	return ah.activeWhere(func(*domain.Listing) bool { return true })
}

func (ah *AuctionHouse) ListBySeller(sellerID string) []*domain.Listing {
	return ah.activeWhere(func(l *domain.Listing) bool {
		return l.SellerID == sellerID
	})
}

// ListSold returns the seller's sold listings still held in history, most
// recent sale first.
func (ah *AuctionHouse) ListSold(sellerID string) []*domain.Listing {
	sold := ah.history.SoldBySeller(sellerID)
	sortByResolvedDesc(sold)
	return sold
}

// History returns every resolved listing of the seller still retained.
func (ah *AuctionHouse) History(sellerID string) []*domain.Listing {
	resolved := ah.history.BySeller(sellerID)
	sortByResolvedDesc(resolved)
	return resolved
}

// Search matches term against item display names and seller names,
// ignoring case.
func (ah *AuctionHouse) Search(term string) []*domain.Listing {
	needle := strings.ToLower(strings.TrimSpace(term))
	return ah.activeWhere(func(l *domain.Listing) bool {
		return strings.Contains(strings.ToLower(l.Item.DisplayName), needle) ||
			strings.Contains(strings.ToLower(l.SellerName), needle)
	})
}

func (ah *AuctionHouse) FilterByCategory(category string) []*domain.Listing {
	return ah.activeWhere(func(l *domain.Listing) bool {
		return strings.EqualFold(ah.categories.Category(l.Item.Type), category)
	})
}

// FilterByPrice returns listings priced within [lo, hi].
func (ah *AuctionHouse) FilterByPrice(lo, hi decimal.Decimal) []*domain.Listing {
	return ah.activeWhere(func(l *domain.Listing) bool {
		return l.AskPrice.GreaterThanOrEqual(lo) && l.AskPrice.LessThanOrEqual(hi)
	})
}

func (ah *AuctionHouse) CategoryOf(listing *domain.Listing) string {
	return ah.categories.Category(listing.Item.Type)
}

func (ah *AuctionHouse) Stats() domain.MarketStats {
	stats := domain.MarketStats{
		CountsByCategory: make(map[string]int),
		TotalActiveValue: decimal.Zero,
		AveragePrice:     decimal.Zero,
	}

	for _, l := range ah.store.Snapshot() {
		if !l.IsActive() {
			continue
		}
		stats.ActiveCount++
		stats.CountsByCategory[ah.categories.Category(l.Item.Type)]++
		stats.TotalActiveValue = stats.TotalActiveValue.Add(l.AskPrice)
	}
	if stats.ActiveCount > 0 {
		stats.AveragePrice = stats.TotalActiveValue.Div(decimal.NewFromInt(int64(stats.ActiveCount)))
	}
	return stats
}

// TopSellers ranks sellers by completed sales. Equal counts are ordered by
// seller id.
func (ah *AuctionHouse) TopSellers(n int) []domain.SellerRank {
	if n <= 0 {
		return nil
	}

	counts := ah.history.SoldCounts()
	ranking := make([]domain.SellerRank, 0, len(counts))
	for sellerID, sold := range counts {
		ranking = append(ranking, domain.SellerRank{SellerID: sellerID, SoldCount: sold})
	}
	sort.Slice(ranking, func(i, j int) bool {
		if ranking[i].SoldCount != ranking[j].SoldCount {
			return ranking[i].SoldCount > ranking[j].SoldCount
		}
		return ranking[i].SellerID < ranking[j].SellerID
	})

	if len(ranking) > n {
		ranking = ranking[:n]
	}
	return ranking
}

func (ah *AuctionHouse) activeWhere(keep func(*domain.Listing) bool) []*domain.Listing {
	var out []*domain.Listing
	for _, l := range ah.store.Snapshot() {
		if l.IsActive() && keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func sortByResolvedDesc(listings []*domain.Listing) {
	sort.Slice(listings, func(i, j int) bool {
		ri, rj := listings[i].ResolvedAt(), listings[j].ResolvedAt()
		if !ri.Equal(rj) {
			return ri.After(rj)
		}
		return listings[i].ID > listings[j].ID
	})
}
