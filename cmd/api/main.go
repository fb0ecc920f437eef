package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/webtemplate/api"
	"github.com/angelmondragon/webtemplate/api/routes"
	"github.com/angelmondragon/webtemplate/internal/authz"
	"github.com/angelmondragon/webtemplate/internal/dashboard"
	"github.com/angelmondragon/webtemplate/pkg/config"
	"github.com/angelmondragon/webtemplate/pkg/db"
	"github.com/angelmondragon/webtemplate/pkg/instance"
	"github.com/angelmondragon/webtemplate/pkg/logger"
	"github.com/angelmondragon/webtemplate/pkg/metrics"
	"github.com/angelmondragon/webtemplate/pkg/migrate"
	"github.com/angelmondragon/webtemplate/pkg/redis"
)

const serviceName = "api"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.Format(),
	})

	var (
		dbClient    *db.Client
		dbPinger    db.Pinger
		redisClient *redis.Client
		statsRepo   dashboard.Repository
	)

	if cfg.DB.Enabled() {
		dbClient, err = db.New(ctx, cfg.DB, logg)
		requireResource(ctx, logg, "database", err)

		requireResource(ctx, logg, "database readiness", db.WaitForReady(ctx, dbClient, cfg.DB.WaitTimeout, logg))
		requireResource(ctx, logg, "migrations", migrate.MaybeRun(ctx, cfg, logg, dbClient))

		dbPinger = dbClient
		statsRepo = dashboard.NewRepository(dbClient.DB())
	} else {
		logg.Warn(ctx, "no database configured, serving built-in dashboard stats")
	}

	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := routes.NewAPIRouter(
		cfg,
		logg,
		dbPinger,
		redisClient,
		metrics.NewHTTPMetrics(reg, serviceName),
		reg,
		dashboard.NewService(statsRepo),
		authz.New(ctx, "", "", logg),
	)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	timeouts := api.TimeoutsFor(cfg.App)
	server := api.NewServer(":"+port, router, timeouts)

	logg.Info(logg.WithFields(ctx, map[string]any{
		"env":        cfg.App.Env,
		"instance":   instance.GetID(),
		"production": cfg.App.IsProd(),
		"addr":       server.Addr,
	}), "starting api server")

	runErr := api.Run(ctx, server, logg, timeouts.Shutdown)
	closeErr := closeAll(dbClient, redisClient)

	if err := multierr.Combine(runErr, closeErr); err != nil {
		logg.Error(context.Background(), "api server stopped with errors", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "api server stopped")
}

func closeAll(dbClient *db.Client, redisClient *redis.Client) error {
	var err error
	if dbClient != nil {
		err = multierr.Append(err, dbClient.Close())
	}
	if redisClient != nil {
		err = multierr.Append(err, redisClient.Close())
	}
	return err
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, "resource not working: "+resource, err)
	os.Exit(1)
}
