package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/sales-analytics/internal/analyzer"
	"github.com/angelmondragon/sales-analytics/internal/engine"
	"github.com/angelmondragon/sales-analytics/internal/jobs"
	"github.com/angelmondragon/sales-analytics/internal/publish"
	"github.com/angelmondragon/sales-analytics/pkg/config"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/metrics"
)

const serviceName = "analyze-sales"

func main() {
	logg := logger.New(logger.Options{ServiceName: serviceName, Level: os.Getenv(config.EnvLogLevel)})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"engine": cfg.Engine.NormalizedKind(),
	})

	os.Exit(run(ctx, stop, cfg, logg))
}

// run returns the process exit status so deferred cleanup happens before
// os.Exit.
func run(ctx context.Context, stop context.CancelFunc, cfg *config.Config, logg *logger.Logger) int {
	defer stop()

	eng, err := engine.New(engine.Params{
		Config:   cfg.Engine,
		GCP:      cfg.GCP,
		BigQuery: cfg.BigQuery,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create compute engine", err)
		return 1
	}

	publisher, err := publish.FromConfig(ctx, cfg, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap publisher", err)
		return 1
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logg.Error(ctx, "error closing publisher", err)
		}
	}()

	registry := prometheus.NewRegistry()
	jobMetrics := metrics.NewJobMetrics(registry)

	svc, err := analyzer.NewService(analyzer.Params{
		Config:       cfg.Analyzer,
		EngineConfig: cfg.Engine,
		Engine:       eng,
		Publisher:    publisher,
		Logger:       logg,
		Metrics:      jobMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create analyzer", err)
		return 1
	}

	runner, err := jobs.NewRunner(jobs.RunnerParams{
		Logger:   logg,
		Metrics:  jobMetrics,
		Gatherer: registry,
		Textfile: cfg.Metrics.TextfilePath,
	})
	if err != nil {
		logg.Error(ctx, "failed to create job runner", err)
		return 1
	}

	// Analysis failures are logged by RunOnce with their stack and do not
	// change the exit status; only bootstrap failures above exit 1.
	_ = runner.RunOnce(ctx, svc)
	return 0
}
