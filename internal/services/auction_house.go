package services

import (
	"auction-house/internal/domain"
	"auction-house/internal/domain/repositories"
	"auction-house/pkg/logger"
	"auction-house/pkg/utils"
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// AuctionHouse runs the buy-now marketplace. Each instance owns its store
// and talks to the host only through the injected collaborators.
type AuctionHouse struct {
	store      repositories.ListingStore
	history    repositories.HistoryStore
	returns    repositories.PendingReturnRepository
	ids        *IDAllocator
	wallet     domain.WalletLedger
	custody    domain.ItemCustody
	notifier   domain.Notifier
	disposal   domain.DisposalPolicy
	categories domain.CategoryResolver
	validator  *ListingValidator
	events     domain.EventPublisher
	now        func() time.Time
	log        logger.Logger
}

func NewAuctionHouse(
	store repositories.ListingStore,
	history repositories.HistoryStore,
	returns repositories.PendingReturnRepository,
	ids *IDAllocator,
	wallet domain.WalletLedger,
	custody domain.ItemCustody,
	notifier domain.Notifier,
	disposal domain.DisposalPolicy,
	categories domain.CategoryResolver,
	validator *ListingValidator,
	log logger.Logger,
) *AuctionHouse {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if categories == nil {
		categories = NewCategoryTable(nil)
	}
	return &AuctionHouse{
		store:      store,
		history:    history,
		returns:    returns,
		ids:        ids,
		wallet:     wallet,
		custody:    custody,
		notifier:   notifier,
		disposal:   disposal,
		categories: categories,
		validator:  validator,
		now:        time.Now,
		log:        log,
	}
}

func (ah *AuctionHouse) SetEventPublisher(events domain.EventPublisher) {
	ah.events = events
}

func (ah *AuctionHouse) SetClock(now func() time.Time) {
	ah.now = now
}

// Create lists item for sale and returns the new listing id.
//
// The balance check and the tax withdrawal are two separate wallet calls.
// This is safe only while each seller issues its own calls one at a time.
func (ah *AuctionHouse) Create(ctx context.Context, sellerID, sellerName string, item domain.Item,
	price decimal.Decimal, duration time.Duration) (uint64, error) {
	if err := ah.validator.ValidateItem(item); err != nil {
		return 0, err
	}
	if err := ah.validator.ValidatePrice(price); err != nil {
		return 0, err
	}
	if err := ah.validator.ValidateDuration(duration); err != nil {
		return 0, err
	}
	if err := ah.validator.ValidateListingCount(ah.openListings(sellerID)); err != nil {
		return 0, err
	}

	tax := ah.validator.TaxFor(price)
	ok, err := ah.wallet.HasBalance(ctx, sellerID, tax)
	if err != nil {
		return 0, fmt.Errorf("check balance of %s: %w", sellerID, err)
	}
	if !ok {
		return 0, fmt.Errorf("%w: listing tax is %s", domain.ErrInsufficientFunds, ah.wallet.Format(tax))
	}

	snapshot := item.Clone()
	if err := ah.custody.Remove(ctx, sellerID, snapshot); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return 0, err
		}
		return 0, fmt.Errorf("take item from %s: %w", sellerID, err)
	}

	if tax.IsPositive() {
		if err := ah.wallet.Withdraw(ctx, sellerID, tax, "market listing tax"); err != nil {
			ah.log.Warn("Listing tax withdraw failed, returning item", "seller_id", sellerID, "error", err)
			if _, retErr := ah.returnItem(ctx, sellerID, snapshot, 0, "listing_aborted"); retErr != nil {
				ah.log.Error("Failed to return item after aborted listing", "seller_id", sellerID, "error", retErr)
			}
			if errors.Is(err, domain.ErrInsufficientFunds) {
				return 0, err
			}
			return 0, fmt.Errorf("withdraw listing tax from %s: %w", sellerID, err)
		}
	}

	listing := domain.NewListing(ah.ids.Next(), sellerID, sellerName, snapshot, price, ah.now(), duration)
	ah.store.Put(listing)

	ah.log.Info("Listing created", "listing_id", listing.ID, "seller_id", sellerID,
		"item", snapshot.DisplayName, "quantity", snapshot.Quantity, "price", price.String(), "tax", tax.String())
	ah.publish(ctx, domain.ListingCreated, listing)
	return listing.ID, nil
}

// Buy purchases listing listingID for buyerID. Concurrent buyers, cancels and
// expiry race on the listing's claim; losers get ErrAlreadyResolved and
// leave wallets and custody untouched.
func (ah *AuctionHouse) Buy(ctx context.Context, buyerID string, listingID uint64) error {
	listing, ok := ah.lookup(listingID)
	if !ok {
		return domain.ErrNotFound
	}
	if !listing.IsActive() {
		return resolvedError(listing)
	}
	now := ah.now()
	if listing.IsExpired(now) {
		return domain.ErrListingExpired
	}
	if buyerID == listing.SellerID {
		return domain.ErrSelfPurchase
	}

	ok, err := ah.wallet.HasBalance(ctx, buyerID, listing.AskPrice)
	if err != nil {
		return fmt.Errorf("check balance of %s: %w", buyerID, err)
	}
	if !ok {
		return fmt.Errorf("%w: price is %s", domain.ErrInsufficientFunds, ah.wallet.Format(listing.AskPrice))
	}
	space, err := ah.custody.HasSpace(ctx, buyerID, listing.Item)
	if err != nil {
		return fmt.Errorf("check custody of %s: %w", buyerID, err)
	}
	if !space {
		return domain.ErrCapacity
	}

	if !listing.TryClaim(buyerID, now) {
		return resolvedError(listing)
	}

	memo := "market purchase #" + strconv.FormatUint(listingID, 10)
	if err := ah.wallet.Withdraw(ctx, buyerID, listing.AskPrice, memo); err != nil {
		listing.ReleaseClaim()
		if errors.Is(err, domain.ErrInsufficientFunds) {
			return err
		}
		return fmt.Errorf("charge %s: %w", buyerID, err)
	}

	if err := ah.custody.Add(ctx, buyerID, listing.Item.Clone()); err != nil {
		if refundErr := ah.wallet.Deposit(ctx, buyerID, listing.AskPrice, memo+" refund"); refundErr != nil {
			ah.log.Error("Failed to refund buyer", "listing_id", listingID, "buyer_id", buyerID,
				"amount", listing.AskPrice.String(), "error", refundErr)
		}
		listing.ReleaseClaim()
		if errors.Is(err, domain.ErrCapacity) {
			return err
		}
		return fmt.Errorf("deliver item to %s: %w", buyerID, err)
	}

	if err := ah.wallet.Deposit(ctx, listing.SellerID, listing.AskPrice, memo); err != nil {
		// The buyer already holds the item; the seller's credit needs manual reconciliation.
		ah.log.Error("Failed to credit seller", "listing_id", listingID, "seller_id", listing.SellerID,
			"amount", listing.AskPrice.String(), "error", err)
	}

	listing.Settle(ah.now())
	ah.history.Archive(listing)
	ah.store.Remove(listingID)

	ah.log.Info("Listing sold", "listing_id", listingID, "seller_id", listing.SellerID,
		"buyer_id", buyerID, "price", listing.AskPrice.String())

	if ah.custody.IsReachable(listing.SellerID) {
		ah.notify(ctx, listing.SellerID, "market.sold", map[string]string{
			"listing_id": strconv.FormatUint(listingID, 10),
			"item":       listing.Item.DisplayName,
			"quantity":   strconv.Itoa(listing.Item.Quantity),
			"price":      ah.wallet.Format(listing.AskPrice),
			"buyer_id":   buyerID,
		})
	}
	ah.publish(ctx, domain.ListingSold, listing)
	return nil
}

// Cancel withdraws an open listing. Only its seller may cancel and the
// listing tax is not refunded. ErrPurchaseInProgress means a buy holds the
// listing; it may still fail and reopen it, so the caller can retry.
func (ah *AuctionHouse) Cancel(ctx context.Context, sellerID string, listingID uint64) error {
	listing, ok := ah.lookup(listingID)
	if !ok {
		return domain.ErrNotFound
	}
	if listing.SellerID != sellerID {
		return domain.ErrNotOwner
	}
	if !listing.TryResolve(domain.StatusCancelled, ah.now()) {
		return resolvedError(listing)
	}

	if _, err := ah.returnItem(ctx, sellerID, listing.Item, listingID, "cancelled"); err != nil {
		ah.log.Error("Failed to return cancelled item", "listing_id", listingID, "seller_id", sellerID, "error", err)
	}
	ah.history.Archive(listing)
	ah.store.Remove(listingID)

	ah.log.Info("Listing cancelled", "listing_id", listingID, "seller_id", sellerID)
	ah.publish(ctx, domain.ListingCancelled, listing)
	return nil
}

// AdminRemove force-closes a listing and sends the item back to its seller.
// It reports whether a listing was removed.
func (ah *AuctionHouse) AdminRemove(ctx context.Context, listingID uint64) bool {
	listing, ok := ah.store.Get(listingID)
	if !ok {
		return false
	}
	if !listing.TryResolve(domain.StatusCancelled, ah.now()) {
		return false
	}

	if _, err := ah.resolveItem(ctx, listing, "admin_removed"); err != nil {
		ah.log.Error("Failed to return removed item", "listing_id", listingID, "seller_id", listing.SellerID, "error", err)
	}
	ah.history.Archive(listing)
	ah.store.Remove(listingID)

	ah.log.Info("Listing removed by admin", "listing_id", listingID, "seller_id", listing.SellerID)
	ah.publish(ctx, domain.ListingRemoved, listing)
	return true
}

// expire resolves a listing the sweeper found past its expiry. It returns
// whether the item went straight back to the seller's custody;
// ErrAlreadyResolved means another operation won the listing first.
func (ah *AuctionHouse) expire(ctx context.Context, listing *domain.Listing) (bool, error) {
	if !listing.TryResolve(domain.StatusExpired, ah.now()) {
		return false, resolvedError(listing)
	}

	returned, err := ah.resolveItem(ctx, listing, "expired")
	ah.history.Archive(listing)
	ah.store.Remove(listing.ID)

	if returned {
		ah.notify(ctx, listing.SellerID, "market.expired", map[string]string{
			"listing_id": strconv.FormatUint(listing.ID, 10),
			"item":       listing.Item.DisplayName,
			"quantity":   strconv.Itoa(listing.Item.Quantity),
		})
	}
	ah.publish(ctx, domain.ListingExpired, listing)
	return returned, err
}

func (ah *AuctionHouse) Get(listingID uint64) (*domain.Listing, bool) {
	return ah.store.Get(listingID)
}

// DeliverPendingReturns hands queued items to a reachable actor until its
// custody is full. It returns how many items were delivered. Concurrent
// callers for the same actor each deliver a given return at most once.
func (ah *AuctionHouse) DeliverPendingReturns(ctx context.Context, actorID string) (int, error) {
	if ah.returns == nil || !ah.custody.IsReachable(actorID) {
		return 0, nil
	}

	queued, err := ah.returns.ListForActor(ctx, actorID)
	if err != nil {
		return 0, fmt.Errorf("list pending returns for %s: %w", actorID, err)
	}

	delivered := 0
	for _, ret := range queued {
		space, err := ah.custody.HasSpace(ctx, actorID, ret.Item)
		if err != nil || !space {
			break
		}
		claimed, err := ah.returns.Claim(ctx, ret.ID)
		if err != nil {
			return delivered, fmt.Errorf("claim pending return %s: %w", ret.ID, err)
		}
		if !claimed {
			continue
		}
		if err := ah.custody.Add(ctx, actorID, ret.Item); err != nil {
			ah.log.Warn("Failed to deliver pending return", "actor_id", actorID, "return_id", ret.ID, "error", err)
			if reqErr := ah.returns.Enqueue(ctx, ret); reqErr != nil {
				ah.log.Error("Failed to requeue pending return", "actor_id", actorID, "return_id", ret.ID, "error", reqErr)
				return delivered, reqErr
			}
			break
		}
		delivered++
	}

	if delivered > 0 {
		ah.log.Info("Pending returns delivered", "actor_id", actorID, "count", delivered)
		ah.notify(ctx, actorID, "market.returns_delivered", map[string]string{
			"count": strconv.Itoa(delivered),
		})
	}
	return delivered, nil
}

func (ah *AuctionHouse) deliverAllPendingReturns(ctx context.Context) int {
	if ah.returns == nil {
		return 0
	}

	actors, err := ah.returns.Actors(ctx)
	if err != nil {
		ah.log.Error("Failed to list actors with pending returns", "error", err)
		return 0
	}

	total := 0
	for _, actorID := range actors {
		n, err := ah.DeliverPendingReturns(ctx, actorID)
		if err != nil {
			ah.log.Error("Failed to deliver pending returns", "actor_id", actorID, "error", err)
		}
		total += n
	}
	return total
}

// resolveItem sends a listing's item back to a seller who may be offline.
func (ah *AuctionHouse) resolveItem(ctx context.Context, listing *domain.Listing, reason string) (bool, error) {
	if !ah.custody.IsReachable(listing.SellerID) {
		if err := ah.disposal.Dispose(ctx, listing.SellerID, listing.Item, listing.ID, reason+"_unreachable"); err != nil {
			return false, err
		}
		return false, nil
	}
	return ah.returnItem(ctx, listing.SellerID, listing.Item, listing.ID, reason)
}

// returnItem puts item into the actor's custody, falling back to the
// disposal policy when there is no room.
func (ah *AuctionHouse) returnItem(ctx context.Context, actorID string, item domain.Item, listingID uint64, reason string) (bool, error) {
	space, err := ah.custody.HasSpace(ctx, actorID, item)
	if err == nil && space {
		if err = ah.custody.Add(ctx, actorID, item.Clone()); err == nil {
			return true, nil
		}
	}
	if err != nil {
		ah.log.Warn("Item return failed, applying disposal policy", "actor_id", actorID, "listing_id", listingID, "error", err)
	}

	if err := ah.disposal.Dispose(ctx, actorID, item, listingID, reason); err != nil {
		return false, err
	}
	return false, nil
}

// lookup finds a listing in the open store, then in history. Resolved
// listings are archived before they leave the store, so a miss in both
// means the id is unknown or already pruned.
func (ah *AuctionHouse) lookup(listingID uint64) (*domain.Listing, bool) {
	if listing, ok := ah.store.Get(listingID); ok {
		return listing, true
	}
	return ah.history.Get(listingID)
}

// resolvedError reports why listing could not be claimed. A listing that is
// not terminal was held by a purchase that may still fail, which gets
// ErrPurchaseInProgress.
func resolvedError(listing *domain.Listing) error {
	status := listing.Status()
	if !status.IsTerminal() {
		return fmt.Errorf("%w: listing %d", domain.ErrPurchaseInProgress, listing.ID)
	}
	return fmt.Errorf("%w: listing %d is %s", domain.ErrAlreadyResolved, listing.ID, status)
}

func (ah *AuctionHouse) openListings(sellerID string) int {
	n := 0
	for _, l := range ah.store.Snapshot() {
		if l.SellerID == sellerID && !l.Status().IsTerminal() {
			n++
		}
	}
	return n
}

func (ah *AuctionHouse) notify(ctx context.Context, actorID, key string, params map[string]string) {
	if err := ah.notifier.Notify(ctx, actorID, key, params); err != nil {
		ah.log.Debug("Notification dropped", "actor_id", actorID, "key", key, "error", err)
	}
}

func (ah *AuctionHouse) publish(ctx context.Context, eventType domain.ListingEventType, listing *domain.Listing) {
	if ah.events == nil {
		return
	}

	event := &domain.ListingEvent{
		EventID:   utils.GenerateID("evt"),
		Type:      eventType,
		ListingID: listing.ID,
		SellerID:  listing.SellerID,
		BuyerID:   listing.BuyerID(),
		ItemType:  listing.Item.Type,
		Quantity:  listing.Item.Quantity,
		Price:     listing.AskPrice,
		Timestamp: ah.now(),
	}
	if err := ah.events.PublishListingEvent(ctx, event); err != nil {
		ah.log.Warn("Failed to publish listing event", "type", eventType, "listing_id", listing.ID, "error", err)
	}
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string, string, map[string]string) error {
	return nil
}
