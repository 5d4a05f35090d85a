package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"sidescroller-server/internal/api"
	authapp "sidescroller-server/internal/app/auth"
	snapshotapp "sidescroller-server/internal/app/snapshot"
	telemetryapp "sidescroller-server/internal/app/telemetry"
	worldapp "sidescroller-server/internal/app/world"
	"sidescroller-server/internal/platform/cache"
	"sidescroller-server/internal/platform/config"
	"sidescroller-server/internal/platform/db"
	"sidescroller-server/internal/platform/migrate"
	"sidescroller-server/internal/platform/mq"
	"sidescroller-server/internal/platform/observability"
	"sidescroller-server/internal/platform/selfping"
)

func main() {
	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := observability.NewLogger(cfg.Env, cfg.Debug)

	// Every collaborator below is ambient (SPEC_FULL.md §9): a connection
	// failure is logged and the feature it backs degrades to a no-op. Only
	// the room/combat/loot core, wired further down, is load-bearing.
	pg, err := db.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		logger.Warn().Err(err).Msg("postgres unavailable; account/snapshot persistence disabled")
		pg = nil
	} else {
		defer pg.Close()
		if err := migrate.Up(ctx, pg, cfg.MigrationDir); err != nil {
			logger.Warn().Err(err).Msg("migrations failed; continuing with existing schema")
		}
	}

	var redisClient *redis.Client
	redisClient, err = cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable; continuing without cache")
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	publisher, err := mq.NewPublisher(cfg.NATSURL)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable; using noop publisher")
		publisher = mq.NewNoopPublisher()
	}
	defer publisher.Close()

	authSvc := authapp.NewService(pg, cfg.JWTSecret, cfg.JWTTTL)
	snapshotSvc := snapshotapp.NewService(logger, pg, redisClient, 30*time.Second)
	telemetrySvc := telemetryapp.NewService(logger, publisher)

	worldSvc := worldapp.NewService(logger, worldapp.Config{
		TickHz:        cfg.TickHz,
		PlayerTimeout: cfg.PlayerTimeout,
		GMPassword:    cfg.GMPassword,
	}, redisClient, snapshotSvc, telemetrySvc)
	worldSvc.Start()
	defer worldSvc.Stop()

	stopSelfPing := selfping.Start(logger, cfg.RenderExternalURL)
	defer stopSelfPing()

	handler := api.NewHandler(logger, authSvc, worldSvc, cfg.CorsOrigin, cfg.MaxRequestBody)
	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	<-sigCh
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown failed")
	}
	logger.Info().Msg("server stopped")
}
