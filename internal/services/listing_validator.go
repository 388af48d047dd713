package services

import (
	"auction-house/internal/domain"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ListingValidator holds the listing rules: per-seller cap and tax rate.
type ListingValidator struct {
	maxListings int
	taxRate     decimal.Decimal
}

func NewListingValidator(maxListings int, taxRate decimal.Decimal) *ListingValidator {
	return &ListingValidator{
		maxListings: maxListings,
		taxRate:     taxRate,
	}
}

func (v *ListingValidator) ValidateItem(item domain.Item) error {
	if item.Quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	return nil
}

func (v *ListingValidator) ValidatePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return domain.ErrInvalidPrice
	}
	return nil
}

func (v *ListingValidator) ValidateDuration(duration time.Duration) error {
	if duration <= 0 {
		return domain.ErrInvalidDuration
	}
	return nil
}

func (v *ListingValidator) ValidateListingCount(active int) error {
	if active >= v.maxListings {
		return fmt.Errorf("%w (%d of %d)", domain.ErrListingLimit, active, v.maxListings)
	}
	return nil
}

func (v *ListingValidator) MaxListings() int {
	return v.maxListings
}

// TaxFor returns the non-refundable listing tax for price.
func (v *ListingValidator) TaxFor(price decimal.Decimal) decimal.Decimal {
	return price.Mul(v.taxRate)
}
