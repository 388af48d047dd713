package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-house/internal/api/handlers"
	"auction-house/internal/config"
	"auction-house/internal/domain"
	"auction-house/internal/domain/repositories"
	"auction-house/internal/infrastructure/memory"
	"auction-house/internal/infrastructure/mysql"
	"auction-house/internal/infrastructure/redis"
	"auction-house/internal/infrastructure/websocket"
	"auction-house/internal/services"
	"auction-house/pkg/logger"
	"auction-house/pkg/utils"

	redisClient "github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewWithLevel(cfg.Log.Level).With("instance_id", cfg.Instance.ID)
	defer log.Sync()
	log.Info("Starting market service", "config", cfg.GetConfigString())

	// Initialize Redis
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
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// MySQL is only needed for durable pending returns
	var db *sql.DB
	if cfg.Market.PendingReturnsBackend == config.BackendMySQL {
		db, err = utils.InitializeMysql(ctx, cfg.MySQL)
		if err != nil {
			log.Error("Failed to connect to MySQL", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("Connected to MySQL")
	}

	connManager := websocket.NewConnectionManager(log)
	notifier := websocket.NewWebSocketNotifier(connManager)

	var wallet domain.WalletLedger
	opening := decimal.NewFromFloat(cfg.Market.StartingBalance)
	switch cfg.Market.WalletBackend {
	case config.BackendRedis:
		wallet = redis.NewRedisWallet(rdb, cfg.Market.CurrencySymbol, opening)
	default:
		wallet = memory.NewWallet(cfg.Market.CurrencySymbol, opening)
	}

	// Reachability follows open gateway sessions
	custody := memory.NewCustody(cfg.Market.CustodySlots, connManager, log)

	var returns repositories.PendingReturnRepository
	if db != nil {
		returns = mysql.NewMySQLPendingReturnRepository(db)
	} else {
		returns = memory.NewPendingReturns()
	}

	disposal, err := services.NewDisposalPolicy(cfg.Market.DisposalPolicy, returns, custody, log)
	if err != nil {
		log.Error("Invalid disposal policy", "error", err)
		os.Exit(1)
	}

	categories := services.NewCategoryTable(services.DefaultCategories())
	if len(cfg.Market.Categories) > 0 {
		categories.Replace(cfg.Market.Categories)
	}
	var resolver domain.CategoryResolver = categories
	if cfg.Market.CategoryBackend == config.BackendRedis {
		dao := services.NewCategoryRuleDao(rdb, categories, categories.Entries())
		if err := dao.LoadRules(ctx); err != nil {
			log.Error("Failed to load category rules", "error", err)
			os.Exit(1)
		}
		resolver = dao
	}

	validator := services.NewListingValidator(cfg.Market.MaxListingsPerSeller, decimal.NewFromFloat(cfg.Market.TaxRate))

	house := services.NewAuctionHouse(
		memory.NewListingStore(),
		memory.NewHistoryStore(cfg.Market.History.MaxEntries, cfg.Market.History.MaxAge),
		returns,
		services.NewIDAllocator(),
		wallet,
		custody,
		notifier,
		disposal,
		resolver,
		validator,
		log,
	)
	house.SetEventPublisher(redis.NewEventPublisher(rdb))

	var sweeper domain.ExpiryScheduler = services.NewExpirySweeper(house, cfg.Market.SweepInterval, log)
	eventListener := services.NewEventListener(connManager, log)
	eventSubscriber := redis.NewRedisEventSubscriber(rdb, log)

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.RequestID())
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: `{"time":"${time_rfc3339}","id":"${id}","remote_ip":"${remote_ip}","method":"${method}","uri":"${uri}","status":${status},"error":"${error}","latency_human":"${latency_human}"}` + "\n",
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions,
		},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
		},
		MaxAge: 86400,
	}))

	marketHandler := handlers.NewMarketHandler(house, cfg.Market.DefaultDuration, log)
	marketHandler.Register(e.Group("/api/v1"))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":          "ok",
			"service":         "market-service",
			"timestamp":       time.Now().Format(time.RFC3339),
			"active_listings": house.Stats().ActiveCount,
		})
	})

	gateway := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port),
		Handler: handlers.NewGatewayRouter(connManager, house, log),
	}

	// Start background services
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	if err := sweeper.Start(bgCtx); err != nil {
		log.Error("Failed to start expiry sweeper", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := eventListener.Start(bgCtx, eventSubscriber); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Event listener stopped", "error", err)
		}
	}()

	go func() {
		log.Info("Starting websocket gateway", "address", gateway.Addr)
		if err := gateway.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Gateway failed to start", "error", err)
			os.Exit(1)
		}
	}()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		log.Info("Starting market API", "address", serverAddr)
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down market service...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := sweeper.Stop(); err != nil {
		log.Error("Failed to stop expiry sweeper", "error", err)
	}
	stopBackground()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}
	if err := gateway.Shutdown(shutdownCtx); err != nil {
		log.Error("Gateway forced to shutdown", "error", err)
	}
	connManager.CloseAll()

	log.Info("Market service stopped", "open_listings", house.Stats().ActiveCount)
}
