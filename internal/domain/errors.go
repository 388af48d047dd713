package domain

import (
	"errors"
	"fmt"
)

// Error kinds reported to the calling actor. Every error returned by the
// marketplace matches exactly one of these with errors.Is.
var (
	ErrValidation        = errors.New("validation failed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotFound          = errors.New("listing not found")
	ErrAlreadyResolved   = errors.New("listing already resolved")
	ErrForbidden         = errors.New("forbidden")
	ErrCapacity          = errors.New("custody full")
)

var (
	ErrInvalidQuantity = fmt.Errorf("%w: item quantity must be positive", ErrValidation)
	ErrInvalidPrice    = fmt.Errorf("%w: price must be positive", ErrValidation)
	ErrInvalidDuration = fmt.Errorf("%w: duration must be positive", ErrValidation)
	ErrListingLimit    = fmt.Errorf("%w: listing limit reached", ErrValidation)
	ErrItemNotHeld     = fmt.Errorf("%w: seller does not hold the item", ErrValidation)

	ErrNotOwner     = fmt.Errorf("%w: only the seller may cancel", ErrForbidden)
	ErrSelfPurchase = fmt.Errorf("%w: cannot buy own listing", ErrForbidden)

	ErrListingExpired     = fmt.Errorf("%w: listing expired", ErrAlreadyResolved)
	ErrPurchaseInProgress = fmt.Errorf("%w: purchase in progress, retry", ErrAlreadyResolved)
)
