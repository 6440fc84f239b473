package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/inkdrop-studio/inkdrop-backend/api/controllers"
	"github.com/inkdrop-studio/inkdrop-backend/api/routes"
	"github.com/inkdrop-studio/inkdrop-backend/internal/artifacts"
	"github.com/inkdrop-studio/inkdrop-backend/internal/claims"
	"github.com/inkdrop-studio/inkdrop-backend/internal/drafts"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/config"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/db"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/logger"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/metrics"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/migrate"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/outbox"
	"github.com/inkdrop-studio/inkdrop-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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

	provider, err := artifacts.NewHTTPProvider(cfg.Provider)
	if err != nil {
		logg.Error(context.Background(), "failed to create design provider", err)
		os.Exit(1)
	}

	durabilityMetrics := metrics.NewDurabilityMetrics(prometheus.DefaultRegisterer)
	outboxService := outbox.NewService(outbox.NewRepository(dbClient.DB()), logg)
	draftRepo := drafts.NewRepository(dbClient.DB())
	artifactRepo := artifacts.NewRepository(dbClient.DB())

	draftService, err := drafts.NewService(draftRepo, dbClient, artifactRepo, cfg.Credential, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create draft service", err)
		os.Exit(1)
	}

	artifactService, err := artifacts.NewService(artifactRepo, draftRepo, dbClient, provider, outboxService, durabilityMetrics, cfg.Provider, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create artifact service", err)
		os.Exit(1)
	}

	claimService, err := claims.NewService(claims.NewRepository(dbClient.DB()), draftRepo, dbClient, outboxService, durabilityMetrics, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create claim service", err)
		os.Exit(1)
	}

	readinessDeps := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, redisClient, readinessDeps, draftService, artifactService, claimService),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
