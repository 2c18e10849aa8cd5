package generator

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/angelmondragon/sales-analytics/internal/publish"
	"github.com/angelmondragon/sales-analytics/pkg/config"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/metrics"
)

// JobName labels the generator in logs and metrics.
const JobName = "generate-sales"

// JobParams configure the generator job.
type JobParams struct {
	Config    config.GeneratorConfig
	Logger    *logger.Logger
	Metrics   *metrics.JobMetrics
	Publisher *publish.Publisher
}

// Job writes the configured number of records and optionally publishes the
// file.
type Job struct {
	cfg       config.GeneratorConfig
	logg      *logger.Logger
	metrics   *metrics.JobMetrics
	publisher *publish.Publisher
}

// NewJob builds the generator job.
func NewJob(params JobParams) (*Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Job{
		cfg:       params.Config,
		logg:      params.Logger,
		metrics:   params.Metrics,
		publisher: params.Publisher,
	}, nil
}

func (j *Job) Name() string { return JobName }

func (j *Job) Run(ctx context.Context) error {
	path, err := filepath.Abs(j.cfg.OutputPath)
	if err != nil {
		path = j.cfg.OutputPath
	}
	ctx = j.logg.WithFields(ctx, map[string]any{
		"output_path": path,
		"records":     j.cfg.Records,
		"seed":        j.cfg.Seed,
	})

	gen := New(Params{Seed: j.cfg.Seed})
	written, err := gen.WriteFile(ctx, path, j.cfg.Records)
	j.metrics.AddRows(JobName, "generated", written)
	if err != nil {
		return err
	}
	j.logg.Info(ctx, fmt.Sprintf("Generated %d records in %s", written, path))

	if j.publisher.Enabled() {
		files := []publish.File{{Path: path, Key: filepath.Base(path)}}
		if err := j.publisher.Publish(ctx, files); err != nil {
			return err
		}
	}
	return nil
}
