package main // Entry point package

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/iliyamo/trip-reservation/internal/config"
	"github.com/iliyamo/trip-reservation/internal/database"
	"github.com/iliyamo/trip-reservation/internal/handler"
	"github.com/iliyamo/trip-reservation/internal/middleware"
	"github.com/iliyamo/trip-reservation/internal/payment"
	"github.com/iliyamo/trip-reservation/internal/queue"
	"github.com/iliyamo/trip-reservation/internal/repository"
	"github.com/iliyamo/trip-reservation/internal/router"
	"github.com/iliyamo/trip-reservation/internal/service"
)

func main() {
	_ = godotenv.Load() // Load .env if present, real env wins

	cfg := config.Load() // Load environment config

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if lvl, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		log = log.Level(lvl)
	}
	if cfg.Env == "dev" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("database connection failed")
	}
	defer db.Close()

	// Repositories
	holds := repository.NewHoldRepo(db)
	ledger := repository.NewReservationRepo(db)
	trips := repository.NewTripRepo(db)

	// Payment gateway + core services
	gateway := payment.NewStripeGateway(cfg.StripeKey, cfg.StripeWebhookSecret)
	booking := service.NewBookingService(holds, trips, ledger, gateway, cfg.HoldTTL, cfg.Currency, log)
	finalizer := service.NewFinalizer(holds, ledger, service.QueueNotifier{}, cfg.Currency, log)

	// Background workers.  The sweeper reaps expired holds; the consumer
	// drains confirmation events published by the finalizer.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := service.NewSweeper(holds, ledger, cfg.SweepInterval, log)
	go sweeper.Run(ctx)
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Warn().Err(err).Msg("notification consumer stopped")
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	rlCfg := config.LoadRateLimitConfig()
	rateLimit := middleware.NewTokenBucket(rlCfg, config.NewRedisClient())

	router.RegisterRoutes(e,
		handler.NewBookingHandler(booking),
		handler.NewWebhookHandler(gateway, finalizer, log),
		rateLimit,
	)

	addr := ":" + cfg.Port
	log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
	if err := e.Start(addr); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
