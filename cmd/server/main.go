package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/bistro-boss-server/internal/config"
	"github.com/iliyamo/bistro-boss-server/internal/database"
	"github.com/iliyamo/bistro-boss-server/internal/handler"
	"github.com/iliyamo/bistro-boss-server/internal/logging"
	"github.com/iliyamo/bistro-boss-server/internal/middleware"
	"github.com/iliyamo/bistro-boss-server/internal/payment"
	"github.com/iliyamo/bistro-boss-server/internal/queue"
	"github.com/iliyamo/bistro-boss-server/internal/repository"
	"github.com/iliyamo/bistro-boss-server/internal/router"
	"github.com/iliyamo/bistro-boss-server/internal/service"
	"github.com/iliyamo/bistro-boss-server/internal/utils"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg := config.Load() // Load environment config

	logger, err := logging.New(logging.Options{
		Production: cfg.IsProduction(),
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	store, err := database.ConnectMongo(connectCtx, cfg.MongoURI, cfg.MongoDB)
	if err == nil {
		err = store.EnsureIndexes(connectCtx)
	}
	cancel()
	if err != nil {
		return err
	}
	logger.Info("connected to mongo", zap.String("db", cfg.MongoDB))

	users := repository.NewUserRepo(store.DB)
	menu := repository.NewMenuRepo(store.DB)
	reviews := repository.NewReviewRepo(store.DB)
	carts := repository.NewCartRepo(store.DB)
	payments := repository.NewPaymentRepo(store.DB)

	var events service.EventPublisher = service.NopPublisher{}
	if cfg.RabbitURL != "" {
		events = service.NewAMQPPublisher(cfg.RabbitURL, logger)
	}

	// The ledger only makes sense when there is a broker to feed it.
	var ledger interface{ Close() error }
	if cfg.LedgerDSN != "" && cfg.RabbitURL != "" {
		db, err := database.OpenLedger(cfg.LedgerDSN)
		if err != nil {
			logger.Warn("payment ledger disabled", zap.Error(err))
		} else {
			ledger = db
			consumer := &queue.LedgerConsumer{
				URL:    cfg.RabbitURL,
				Ledger: repository.NewLedgerRepo(db),
				Log:    logger,
			}
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("ledger consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	reconciler := service.NewPaymentReconciler(service.ReconcilerDeps{
		Payments:      payments,
		Carts:         carts,
		Card:          payment.NewStripeProcessor(cfg.StripeSecretKey, nil),
		Gateway:       payment.NewSSLCommerz(cfg.Gateway, nil),
		Events:        events,
		Log:           logger,
		VerifyIntents: cfg.StripeVerifyIntents,
	})

	// Redis is optional: without it the cache and rate limits pass through.
	rdb, err := config.NewRedisClient(config.LoadRedisConfig())
	if err != nil {
		logger.Warn("redis unavailable, cache and rate limiting disabled", zap.Error(err))
	}
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()
	purge := func(ctx context.Context) error { return middleware.PurgeCache(ctx, cacheCfg, rdb) }

	tokens := utils.NewTokenService(cfg.JWTSecret, time.Duration(cfg.AccessTTLMin)*time.Minute)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))
	e.Use(middleware.NewTokenBucket(rateCfg, rdb))

	router.RegisterRoutes(e, router.Handlers{
		Auth:     handler.NewAuthHandler(tokens),
		Menu:     handler.NewMenuHandler(menu, reviews, purge),
		Carts:    handler.NewCartHandler(carts),
		Users:    handler.NewUserHandler(users),
		Payments: handler.NewPaymentHandler(payments, reconciler, cfg.Gateway.PaymentHistoryURL),
		Stats:    handler.NewStatsHandler(users, menu, payments),
		Store:    store,
	}, router.Guards{
		Tokens:       tokens,
		Users:        users,
		CatalogCache: middleware.NewRedisCache(cacheCfg, rdb),
		PaymentLimit: middleware.NewTokenBucket(rateCfg.Payments(), rdb),
	})

	addr := ":" + cfg.Port // Address string with port
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Warn("mongo close", zap.Error(err))
	}
	if ledger != nil {
		_ = ledger.Close()
	}
	closeRedis(rdb)
	return nil
}

func closeRedis(rdb *redis.Client) {
	if rdb != nil {
		_ = rdb.Close()
	}
}
