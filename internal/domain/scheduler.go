package domain

import "context"

// ExpiryScheduler resolves listings whose time ran out.
type ExpiryScheduler interface {
	Start(ctx context.Context) error
	Stop() error
	RunOnce(ctx context.Context) SweepReport
}
