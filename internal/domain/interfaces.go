package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// Collaborator interfaces
type WalletLedger interface {
	HasBalance(ctx context.Context, actorID string, amount decimal.Decimal) (bool, error)
	Withdraw(ctx context.Context, actorID string, amount decimal.Decimal, memo string) error
	Deposit(ctx context.Context, actorID string, amount decimal.Decimal, memo string) error
	Format(amount decimal.Decimal) string
}

type ItemCustody interface {
	HasSpace(ctx context.Context, actorID string, item Item) (bool, error)
	Remove(ctx context.Context, actorID string, item Item) error
	Add(ctx context.Context, actorID string, item Item) error
	IsReachable(actorID string) bool
	// DisposeElsewhere places the item outside the actor's custody, for
	// example dropping it in the world at the actor's location.
	DisposeElsewhere(ctx context.Context, actorID string, item Item) error
}

// Notifier delivers best-effort messages. Callers ignore its errors.
type Notifier interface {
	Notify(ctx context.Context, actorID, eventKey string, params map[string]string) error
}

type Presence interface {
	IsOnline(actorID string) bool
}

// DisposalPolicy decides what happens to an item that cannot be put back
// into its owner's custody.
type DisposalPolicy interface {
	Dispose(ctx context.Context, actorID string, item Item, listingID uint64, reason string) error
}

type CategoryResolver interface {
	Category(itemType string) string
}

// Event interfaces
type EventPublisher interface {
	PublishListingEvent(ctx context.Context, event *ListingEvent) error
}

type EventSubscriber interface {
	SubscribeToListingEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *ListingEvent) error

// WebSocket interfaces
type WebSocketConnection interface {
	Send(message interface{}) error
	Close() error
	ActorID() string
}

type ConnectionManager interface {
	RegisterConnection(conn WebSocketConnection) error
	UnregisterConnection(conn WebSocketConnection) error
	RegisterFeed(conn WebSocketConnection) error
	UnregisterFeed(conn WebSocketConnection) error
	IsOnline(actorID string) bool
	NotifyActor(actorID string, message interface{}) error
	BroadcastFeed(message interface{}) error
	CloseAll() error
}
