package memory

import (
	"auction-house/internal/domain"
	"auction-house/pkg/logger"
	"context"
	"fmt"
	"sync"
)

// Custody is an in-process ItemCustody where each actor owns a fixed number
// of slots and every stack takes one slot.
type Custody struct {
	slots    int
	items    map[string][]domain.Item
	online   map[string]bool
	presence domain.Presence
	dropped  []domain.Item
	mutex    sync.Mutex
	log      logger.Logger
}

// NewCustody builds a custody store. When presence is nil reachability is
// driven by SetOnline.
func NewCustody(slots int, presence domain.Presence, log logger.Logger) *Custody {
	return &Custody{
		slots:    slots,
		items:    make(map[string][]domain.Item),
		online:   make(map[string]bool),
		presence: presence,
		log:      log,
	}
}

func (c *Custody) SetOnline(actorID string, online bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.online[actorID] = online
}

// Grant places an item directly, ignoring capacity.
func (c *Custody) Grant(actorID string, item domain.Item) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.items[actorID] = append(c.items[actorID], item.Clone())
}

func (c *Custody) Items(actorID string) []domain.Item {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	out := make([]domain.Item, 0, len(c.items[actorID]))
	for _, item := range c.items[actorID] {
		out = append(out, item.Clone())
	}
	return out
}

func (c *Custody) Dropped() []domain.Item {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	out := make([]domain.Item, len(c.dropped))
	copy(out, c.dropped)
	return out
}

func (c *Custody) HasSpace(_ context.Context, actorID string, _ domain.Item) (bool, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return len(c.items[actorID]) < c.slots, nil
}

func (c *Custody) Remove(_ context.Context, actorID string, item domain.Item) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	held := c.items[actorID]
	for i, stack := range held {
		if stack.Type != item.Type || stack.DisplayName != item.DisplayName || stack.Quantity < item.Quantity {
			continue
		}
		if stack.Quantity == item.Quantity {
			c.items[actorID] = append(held[:i], held[i+1:]...)
		} else {
			held[i].Quantity -= item.Quantity
		}
		return nil
	}
	return fmt.Errorf("%w: %s x%d", domain.ErrItemNotHeld, item.DisplayName, item.Quantity)
}

func (c *Custody) Add(_ context.Context, actorID string, item domain.Item) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if len(c.items[actorID]) >= c.slots {
		return fmt.Errorf("%w: %s has no free slot", domain.ErrCapacity, actorID)
	}
	c.items[actorID] = append(c.items[actorID], item.Clone())
	return nil
}

func (c *Custody) IsReachable(actorID string) bool {
	if c.presence != nil {
		return c.presence.IsOnline(actorID)
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.online[actorID]
}

func (c *Custody) DisposeElsewhere(_ context.Context, actorID string, item domain.Item) error {
	c.mutex.Lock()
	c.dropped = append(c.dropped, item.Clone())
	c.mutex.Unlock()

	c.log.Warn("Item disposed outside custody", "actor_id", actorID, "item", item.DisplayName, "quantity", item.Quantity)
	return nil
}
