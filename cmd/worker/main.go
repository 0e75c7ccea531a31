package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"artgallery/internal/cache"
	"artgallery/internal/config"
	"artgallery/internal/database"
	"artgallery/internal/log"
	"artgallery/internal/queue"
	"artgallery/internal/repository"
	"artgallery/internal/storage"
	"artgallery/internal/tasks"
	"artgallery/internal/thumbnail"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level).With().Str("service", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	if err := cache.EnsureGroup(ctx, client, cfg.Redis.Stream, cfg.Redis.Group); err != nil {
		logger.Fatal().Err(err).Msg("create consumer group failed")
	}

	pgCfg := cfg.Postgres
	pgCfg.ApplicationName += "-worker"
	dbPool, err := database.NewPostgresPool(ctx, pgCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}

	processor := tasks.NewProcessor(
		repository.NewStore(dbPool),
		objectStore,
		thumbnail.NewRenderer(cfg.Thumbnails),
		logger,
	)
	consumer := queue.NewConsumer(client, cfg.Redis, processor, logger)

	done := make(chan error, 1)
	go func() { done <- consumer.Start(ctx) }()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("consumer stopped unexpectedly")
		}
		return
	}

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn().Msg("consumer did not stop in time")
	}
}
