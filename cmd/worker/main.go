package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/noah-isme/pricelist/internal/app"
	"github.com/noah-isme/pricelist/internal/config"
	"github.com/noah-isme/pricelist/internal/obs"
	"github.com/noah-isme/pricelist/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("component", "worker").Logger()
	if !cfg.RedisEnabled() {
		logger.Fatal().Msg("REDIS_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	deps, err := app.Build(connectCtx, cfg, logger, false)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	redisOpt, err := queue.RedisOpt(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}

	scheduler, err := queue.NewScheduler(redisOpt, cfg.CatalogRefreshSchedule, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise scheduler")
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatal().Err(err).Msg("start scheduler")
	}
	defer scheduler.Shutdown()

	if id, err := queue.EnqueueCatalogWarm(ctx, deps.TaskClient, "startup"); err != nil {
		logger.Warn().Err(err).Msg("enqueue startup warm")
	} else if id != "" {
		logger.Info().Str("task_id", id).Msg("startup warm enqueued")
	}

	srv := queue.NewServer(queue.ServerConfig{
		Redis:       redisOpt,
		Concurrency: cfg.QueueConcurrency,
		Logger:      logger,
	})
	if err := srv.Start(queue.NewMux(deps.Warmer, logger)); err != nil {
		logger.Fatal().Err(err).Msg("start task server")
	}

	logger.Info().Str("schedule", cfg.CatalogRefreshSchedule).Msg("worker starting")
	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}
