package memory

import (
	"auction-house/internal/domain"
	"context"
	"sort"
	"sync"
)

// PendingReturns is a process-local return queue. Use the MySQL repository
// when returns must outlive the process.
type PendingReturns struct {
	byActor map[string][]*domain.PendingReturn
	owner   map[string]string // returnID -> actorID
	mutex   sync.Mutex
}

func NewPendingReturns() *PendingReturns {
	return &PendingReturns{
		byActor: make(map[string][]*domain.PendingReturn),
		owner:   make(map[string]string),
	}
}

func (p *PendingReturns) Enqueue(_ context.Context, ret *domain.PendingReturn) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.byActor[ret.ActorID] = append(p.byActor[ret.ActorID], ret)
	p.owner[ret.ID] = ret.ActorID
	return nil
}

func (p *PendingReturns) ListForActor(_ context.Context, actorID string) ([]*domain.PendingReturn, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	queued := p.byActor[actorID]
	out := make([]*domain.PendingReturn, len(queued))
	copy(out, queued)
	return out, nil
}

func (p *PendingReturns) Claim(_ context.Context, returnID string) (bool, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	actorID, ok := p.owner[returnID]
	if !ok {
		return false, nil
	}
	delete(p.owner, returnID)

	queued := p.byActor[actorID]
	for i, ret := range queued {
		if ret.ID == returnID {
			queued = append(queued[:i], queued[i+1:]...)
			break
		}
	}
	if len(queued) == 0 {
		delete(p.byActor, actorID)
	} else {
		p.byActor[actorID] = queued
	}
	return true, nil
}

func (p *PendingReturns) Actors(_ context.Context) ([]string, error) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	actors := make([]string, 0, len(p.byActor))
	for actorID := range p.byActor {
		actors = append(actors, actorID)
	}
	sort.Strings(actors)
	return actors, nil
}
