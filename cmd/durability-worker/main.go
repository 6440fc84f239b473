package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/inkdrop-studio/inkdrop-backend/internal/artifacts"
	"github.com/inkdrop-studio/inkdrop-backend/internal/drafts"
	"github.com/inkdrop-studio/inkdrop-backend/internal/uploader"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/config"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/db"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/logger"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/metrics"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/migrate"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/outbox"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/outbox/idempotency"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/pubsub"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/redis"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/storage/gcs"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "durability-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "durability-worker"

	logg = logger.New(logger.Options{
		ServiceName: "durability-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	gcsClient, err := gcs.NewClient(context.Background(), cfg.GCS, cfg.GCP, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap gcs", err)
		os.Exit(1)
	}

	provider, err := artifacts.NewHTTPProvider(cfg.Provider)
	if err != nil {
		logg.Error(context.Background(), "failed to create design provider", err)
		os.Exit(1)
	}

	durabilityMetrics := metrics.NewDurabilityMetrics(prometheus.DefaultRegisterer)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	draftRepo := drafts.NewRepository(dbClient.DB())
	artifactRepo := artifacts.NewRepository(dbClient.DB())

	artifactService, err := artifacts.NewService(artifactRepo, draftRepo, dbClient, provider, outboxService, durabilityMetrics, cfg.Provider, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create artifact service", err)
		os.Exit(1)
	}

	manager, err := idempotency.NewManager(redisClient, cfg.Outbox.IdempotencyTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency manager", err)
		os.Exit(1)
	}

	service, err := uploader.NewService(pubsubClient.ArtifactSubscription(), artifactService, gcsClient, manager, durabilityMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create durability worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "durability-worker",
	})
	logg.Info(ctx, "starting durability worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "durability worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "durability worker shutting down gracefully")
}
