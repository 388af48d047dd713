package services

import (
	"auction-house/internal/config"
	"auction-house/internal/domain"
	"auction-house/internal/domain/repositories"
	"auction-house/pkg/logger"
	"auction-house/pkg/utils"
	"context"
	"fmt"
	"time"
)

// QueueDisposal parks undeliverable items until the owner can receive them.
type QueueDisposal struct {
	returns repositories.PendingReturnRepository
	now     func() time.Time
	log     logger.Logger
}

func NewQueueDisposal(returns repositories.PendingReturnRepository, log logger.Logger) *QueueDisposal {
	return &QueueDisposal{
		returns: returns,
		now:     time.Now,
		log:     log,
	}
}

func (d *QueueDisposal) Dispose(ctx context.Context, actorID string, item domain.Item, listingID uint64, reason string) error {
	ret := &domain.PendingReturn{
		ID:        utils.GenerateID("return"),
		ActorID:   actorID,
		Item:      item.Clone(),
		ListingID: listingID,
		Reason:    reason,
		CreatedAt: d.now(),
	}
	if err := d.returns.Enqueue(ctx, ret); err != nil {
		return fmt.Errorf("queue return for %s: %w", actorID, err)
	}

	d.log.Info("Item queued for return", "actor_id", actorID, "listing_id", listingID, "return_id", ret.ID, "reason", reason)
	return nil
}

// WorldDropDisposal hands the item to the host to place outside custody.
type WorldDropDisposal struct {
	custody domain.ItemCustody
	log     logger.Logger
}

func NewWorldDropDisposal(custody domain.ItemCustody, log logger.Logger) *WorldDropDisposal {
	return &WorldDropDisposal{
		custody: custody,
		log:     log,
	}
}

func (d *WorldDropDisposal) Dispose(ctx context.Context, actorID string, item domain.Item, listingID uint64, reason string) error {
	if err := d.custody.DisposeElsewhere(ctx, actorID, item.Clone()); err != nil {
		return fmt.Errorf("drop item for %s: %w", actorID, err)
	}

	d.log.Info("Item dropped outside custody", "actor_id", actorID, "listing_id", listingID, "reason", reason)
	return nil
}

// NewDisposalPolicy picks a policy by its configured name.
func NewDisposalPolicy(name string, returns repositories.PendingReturnRepository,
	custody domain.ItemCustody, log logger.Logger) (domain.DisposalPolicy, error) {
	switch name {
	case config.DisposalQueue:
		return NewQueueDisposal(returns, log), nil
	case config.DisposalDrop:
		return NewWorldDropDisposal(custody, log), nil
	default:
		return nil, fmt.Errorf("unknown disposal policy %q", name)
	}
}
