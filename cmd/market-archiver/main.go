package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-house/internal/config"
	"auction-house/internal/domain"
	"auction-house/internal/infrastructure/mysql"
	"auction-house/internal/infrastructure/redis"
	"auction-house/pkg/logger"
	"auction-house/pkg/utils"

	redisClient "github.com/go-redis/redis/v8"
)

// Archiver copies every listing lifecycle event into the MySQL audit log.
type Archiver struct {
	subscriber *redis.RedisEventSubscriber
	eventRepo  *mysql.MySQLListingEventRepository
	log        logger.Logger
}

func NewArchiver(subscriber *redis.RedisEventSubscriber, eventRepo *mysql.MySQLListingEventRepository, log logger.Logger) *Archiver {
	return &Archiver{
		subscriber: subscriber,
		eventRepo:  eventRepo,
		log:        log,
	}
}

func (a *Archiver) Start(ctx context.Context) error {
	a.log.Info("Starting listing event archiver")

	return a.subscriber.SubscribeToListingEvents(ctx, func(event *domain.ListingEvent) error {
		a.log.Debug("Archiving listing event", "type", event.Type, "listing_id", event.ListingID)

		writeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return a.eventRepo.SaveListingEvent(writeCtx, event)
	})
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.Log.Level).With("component", "archiver")
	defer log.Sync()

	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	db, err := utils.InitializeMysql(ctx, cfg.MySQL)
	if err != nil {
		log.Error("Failed to connect to MySQL", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	archiver := NewArchiver(
		redis.NewRedisEventSubscriber(rdb, log),
		mysql.NewMySQLListingEventRepository(db),
		log,
	)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	go func() {
		if err := archiver.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Archiver stopped", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down archiver...")
	stop()
	log.Info("Archiver stopped")
}
