package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/webtemplate/api"
	"github.com/angelmondragon/webtemplate/api/routes"
	"github.com/angelmondragon/webtemplate/internal/console"
	"github.com/angelmondragon/webtemplate/pkg/apiclient"
	"github.com/angelmondragon/webtemplate/pkg/config"
	"github.com/angelmondragon/webtemplate/pkg/instance"
	"github.com/angelmondragon/webtemplate/pkg/logger"
	"github.com/angelmondragon/webtemplate/pkg/metrics"
)

const serviceName = "web"

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

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	client := apiclient.New(cfg.Client)
	router := routes.NewWebRouter(
		cfg,
		logg,
		metrics.NewHTTPMetrics(reg, serviceName),
		reg,
		console.New(client, nil, logg),
	)

	timeouts := api.TimeoutsFor(cfg.App)
	server := api.NewServer(":"+cfg.Web.Port, router, timeouts)

	logg.Info(logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
		"addr":     server.Addr,
		"api_url":  client.URL(""),
		"static":   cfg.Web.StaticDir,
	}), "starting web server")

	if err := api.Run(ctx, server, logg, timeouts.Shutdown); err != nil {
		logg.Error(context.Background(), "web server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(context.Background(), "web server stopped")
}
