package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/sales-analytics/internal/generator"
	"github.com/angelmondragon/sales-analytics/internal/jobs"
	"github.com/angelmondragon/sales-analytics/internal/publish"
	"github.com/angelmondragon/sales-analytics/pkg/config"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/metrics"
)

const serviceName = "generate-sales"

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
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	os.Exit(run(ctx, stop, cfg, logg))
}

func run(ctx context.Context, stop context.CancelFunc, cfg *config.Config, logg *logger.Logger) int {
	defer stop()

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

	job, err := generator.NewJob(generator.JobParams{
		Config:    cfg.Generator,
		Logger:    logg,
		Metrics:   jobMetrics,
		Publisher: publisher,
	})
	if err != nil {
		logg.Error(ctx, "failed to create generator job", err)
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

	if err := runner.RunOnce(ctx, job); err != nil {
		return 1
	}
	return 0
}
