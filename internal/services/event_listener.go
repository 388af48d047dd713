package services

import (
	"auction-house/internal/domain"
	"auction-house/pkg/logger"
	"context"
	"fmt"
)

// FeedBroadcaster pushes public market updates to every feed subscriber.
type FeedBroadcaster interface {
	BroadcastFeed(message interface{}) error
}

// EventListener relays listing events to the public websocket feed.
type EventListener struct {
	broadcaster FeedBroadcaster
	log         logger.Logger
}

func NewEventListener(broadcaster FeedBroadcaster, log logger.Logger) *EventListener {
	return &EventListener{
		broadcaster: broadcaster,
		log:         log,
	}
}

func (el *EventListener) Start(ctx context.Context, subscriber domain.EventSubscriber) error {
	el.log.Info("Starting event listener")
	return subscriber.SubscribeToListingEvents(ctx, el.HandleListingEvent)
}

func (el *EventListener) HandleListingEvent(event *domain.ListingEvent) error {
	el.log.Debug("Handling listing event", "type", event.Type, "listing_id", event.ListingID)

	switch event.Type {
	case domain.ListingCreated:
		return el.broadcast("listing_created", event)
	case domain.ListingSold:
		return el.broadcast("listing_sold", event)
	case domain.ListingCancelled, domain.ListingExpired, domain.ListingRemoved:
		return el.broadcast("listing_closed", event)
	}

	return fmt.Errorf("unknown listing event type %q", event.Type)
}

func (el *EventListener) broadcast(kind string, event *domain.ListingEvent) error {
	return el.broadcaster.BroadcastFeed(map[string]interface{}{
		"type":       kind,
		"reason":     string(event.Type),
		"listing_id": event.ListingID,
		"seller_id":  event.SellerID,
		"item_type":  event.ItemType,
		"quantity":   event.Quantity,
		"price":      event.Price.String(),
		"timestamp":  event.Timestamp,
	})
}
