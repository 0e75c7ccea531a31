package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"artgallery/internal/cache"
	"artgallery/internal/config"
	"artgallery/internal/contentsafety"
	"artgallery/internal/database"
	"artgallery/internal/events"
	"artgallery/internal/gallery"
	"artgallery/internal/handlers"
	"artgallery/internal/jobs"
	"artgallery/internal/log"
	"artgallery/internal/moderation"
	"artgallery/internal/repository"
	"artgallery/internal/server"
	"artgallery/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, cfg.Logging.Level)

	if cfg.Security.JWTAccessSecret == "" {
		logger.Fatal().Msg("security.jwtaccesssecret must be set")
	}

	ctx := context.Background()

	if cfg.Postgres.Migrate {
		if err := database.Migrate(cfg.Postgres.DSN, logger); err != nil {
			logger.Fatal().Err(err).Msg("database migration failed")
		}
	}

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBuckets(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure buckets failed")
	}

	store := repository.NewStore(dbPool)

	moderator, err := moderation.NewModerator(
		moderation.NewKeywordFilter(),
		newClassifier(cfg.ContentSafety, logger),
		store,
		cfg.ContentSafety,
		logger,
	)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid moderation settings")
	}

	publisher := events.NewPublisher(redisClient, cfg.Redis.EventStream, cfg.Redis.Stream, logger)
	coordinator := gallery.NewCoordinator(gallery.Deps{
		Store:     store,
		Moderator: moderator,
		Objects:   objectStore,
		Events:    publisher,
		Tasks:     publisher,
		Log:       logger,
	})

	handlerSet := handlers.NewHandlerSet(logger, cfg, coordinator, store, objectStore,
		handlers.HealthCheck{Name: "postgres", Check: dbPool.Ping},
		handlers.HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }},
	)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(coordinator, cfg.Jobs, logger)
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, dbPool, redisClient)
}

// newClassifier fails closed when no endpoint is configured: every image
// publish then reports the classifier as unavailable.
func newClassifier(cfg config.ContentSafetyConfig, logger zerolog.Logger) contentsafety.Classifier {
	if cfg.Endpoint == "" {
		logger.Warn().Msg("content safety endpoint not configured, image publishing disabled")
		return contentsafety.Unavailable{}
	}
	client := contentsafety.NewClient(cfg, logger)
	if cfg.CacheSize <= 0 {
		return client
	}
	return contentsafety.NewCachedClassifier(client, cfg.CacheSize, cfg.CacheTTL)
}

func waitForShutdown(logger zerolog.Logger, srv *server.HTTPServer, scheduler *jobs.Scheduler, db *pgxpool.Pool, redisClient *redis.Client) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	scheduler.Stop()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
