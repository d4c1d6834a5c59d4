// Command server runs the session engine API, its event publisher and the
// event log consumer.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/iliyamo/gamecafe-session-engine/internal/config"
	"github.com/iliyamo/gamecafe-session-engine/internal/database"
	"github.com/iliyamo/gamecafe-session-engine/internal/handler"
	"github.com/iliyamo/gamecafe-session-engine/internal/middleware"
	"github.com/iliyamo/gamecafe-session-engine/internal/model"
	"github.com/iliyamo/gamecafe-session-engine/internal/pricing"
	"github.com/iliyamo/gamecafe-session-engine/internal/queue"
	"github.com/iliyamo/gamecafe-session-engine/internal/repository"
	"github.com/iliyamo/gamecafe-session-engine/internal/router"
	"github.com/iliyamo/gamecafe-session-engine/internal/service"
	"github.com/iliyamo/gamecafe-session-engine/internal/utils"
)

func main() {
	migrateOnly := flag.Bool("migrate", false, "create the schema and exit")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.AutoMigrate || *migrateOnly {
		if err := database.Migrate(ctx, db, cfg.DBDriver); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
		logger.Info("schema ready", zap.String("driver", cfg.DBDriver))
		if *migrateOnly {
			return
		}
	}

	store := repository.NewStore(db)
	if err := seedAdmin(ctx, cfg, store.Members); err != nil {
		logger.Fatal("seed admin", zap.Error(err))
	}

	publisher := queue.NewPublisher(cfg.AMQPURL, 256, logger.Named("publisher"))
	go publisher.Run(ctx)
	consumer := queue.NewConsumer(cfg.AMQPURL, cfg.EventLogDir, logger.Named("consumer"))
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("event consumer stopped", zap.Error(err))
		}
	}()

	clock := pricing.SystemClock
	deps := service.Deps{
		Store:   store,
		Pricing: pricing.NewCalculator(store.HappyHours, clock),
		Events:  publisher,
		Logger:  logger,
		Clock:   clock,
	}
	sessions := service.NewSessions(deps, cfg.HourlyRate)

	h := router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, store.Members, store.Tokens, logger, clock),
		Sessions:     handler.NewSessionHandler(sessions, logger),
		Members:      handler.NewMemberHandler(store.Members, service.NewLedger(deps), logger, clock),
		Terminals:    handler.NewTerminalHandler(store.Terminals, logger, clock),
		Pricing:      handler.NewPricingHandler(deps.Pricing, service.NewHappyHours(deps), logger),
		TimePackages: handler.NewTimePackageHandler(store.Packages, logger),
		Feed:         handler.NewFeedHandler(store.Notifications, store.Activity, logger),
	}

	rdb := config.NewRedisClient(logger)
	if rdb != nil {
		defer rdb.Close()
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Info("request",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency))
			return nil
		},
	}))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger))

	router.RegisterRoutes(e, h, router.Options{
		DB:        db,
		JWTSecret: cfg.JWTSecret,
		Cache:     config.LoadCacheConfig(),
		Redis:     rdb,
		Log:       logger,
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

// seedAdmin creates the ADMIN account named by ADMIN_USERNAME when it does
// not exist yet.
func seedAdmin(ctx context.Context, cfg config.Config, members *repository.MemberRepo) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		return nil
	}
	_, err := members.GetByUsername(ctx, cfg.AdminUsername)
	if err == nil || !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	hash, err := utils.HashPassword(cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		return err
	}
	_, err = members.Create(ctx, cfg.AdminUsername, hash, model.RoleAdmin, model.TierBronze, time.Now().UTC().Truncate(time.Second))
	return err
}
