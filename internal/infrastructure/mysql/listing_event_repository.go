package mysql

import (
	"auction-house/internal/domain"
	"context"
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// MySQLListingEventRepository is an append-only audit log of listing
// lifecycle events. It is never used to rebuild the live market.
type MySQLListingEventRepository struct {
	db *sql.DB
}

func NewMySQLListingEventRepository(db *sql.DB) *MySQLListingEventRepository {
	return &MySQLListingEventRepository{db: db}
}

func (r *MySQLListingEventRepository) SaveListingEvent(ctx context.Context, event *domain.ListingEvent) error {
	query := `
        INSERT INTO listing_events (event_id, listing_id, event_type, seller_id, buyer_id, item_type, quantity, price, timestamp, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		event.EventID, event.ListingID, string(event.Type), event.SellerID, event.BuyerID,
		event.ItemType, event.Quantity, event.Price.String(), event.Timestamp, time.Now())
	return err
}

// PublishListingEvent lets the repository stand in for an EventPublisher.
func (r *MySQLListingEventRepository) PublishListingEvent(ctx context.Context, event *domain.ListingEvent) error {
	return r.SaveListingEvent(ctx, event)
}

func (r *MySQLListingEventRepository) GetSellerEvents(ctx context.Context, sellerID string, limit int) ([]*domain.ListingEvent, error) {
	query := `
        SELECT event_id, listing_id, event_type, seller_id, buyer_id, item_type, quantity, price, timestamp
        FROM listing_events
        WHERE seller_id = ?
        ORDER BY timestamp DESC
        LIMIT ?
    `

	rows, err := r.db.QueryContext(ctx, query, sellerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.ListingEvent
	for rows.Next() {
		var event domain.ListingEvent
		var eventType, price string

		err := rows.Scan(&event.EventID, &event.ListingID, &eventType, &event.SellerID, &event.BuyerID,
			&event.ItemType, &event.Quantity, &price, &event.Timestamp)
		if err != nil {
			return nil, err
		}

		event.Type = domain.ListingEventType(eventType)
		if event.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		events = append(events, &event)
	}

	return events, rows.Err()
}
