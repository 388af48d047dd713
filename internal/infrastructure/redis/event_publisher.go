package redis

import (
	"auction-house/internal/domain"
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
)

const marketEventsChannel = "market_events"

type EventPublisherImpl struct {
	client *redis.Client
}

func NewEventPublisher(client *redis.Client) *EventPublisherImpl {
	return &EventPublisherImpl{client: client}
}

func (r *EventPublisherImpl) PublishListingEvent(ctx context.Context, event *domain.ListingEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return r.client.Publish(ctx, marketEventsChannel, data).Err()
}
