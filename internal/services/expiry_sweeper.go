package services

import (
	"auction-house/internal/domain"
	"auction-house/pkg/logger"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// ExpirySweeper periodically resolves listings past their expiry, retries
// pending returns and prunes history.
type ExpirySweeper struct {
	cron     *cron.Cron
	house    *AuctionHouse
	interval time.Duration
	log      logger.Logger
}

func NewExpirySweeper(house *AuctionHouse, interval time.Duration, log logger.Logger) *ExpirySweeper {
	cl := cronLogger{log: log}
	return &ExpirySweeper{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		house:    house,
		interval: interval,
		log:      log,
	}
}

func (s *ExpirySweeper) Start(ctx context.Context) error {
	s.log.Info("Starting expiry sweeper", "interval", s.interval.String())

	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *ExpirySweeper) Stop() error {
	s.log.Info("Stopping expiry sweeper")
	<-s.cron.Stop().Done()
	return nil
}

// RunOnce performs a single sweep. A failure on one listing never stops
// the rest of the cycle.
func (s *ExpirySweeper) RunOnce(ctx context.Context) domain.SweepReport {
	var report domain.SweepReport
	now := s.house.now()

	for _, listing := range s.house.store.Snapshot() {
		if !listing.IsActive() || !listing.IsExpired(now) {
			continue
		}

		returned, err := s.house.expire(ctx, listing)
		if errors.Is(err, domain.ErrAlreadyResolved) {
			continue
		}
		report.Expired++
		switch {
		case err != nil:
			report.Failed++
			s.log.Error("Failed to return expired item", "listing_id", listing.ID, "seller_id", listing.SellerID, "error", err)
		case returned:
			report.Returned++
		default:
			report.Disposed++
		}
	}

	report.Delivered = s.house.deliverAllPendingReturns(ctx)
	report.Pruned = s.house.history.Prune(now)

	s.log.Info("Expiry sweep finished",
		"expired", report.Expired,
		"returned", report.Returned,
		"disposed", report.Disposed,
		"failed", report.Failed,
		"delivered", report.Delivered,
		"pruned", report.Pruned)
	return report
}

// cronLogger routes cron's own messages into the service logger.
type cronLogger struct {
	log logger.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Error(msg, append(keysAndValues, "error", err)...)
}
