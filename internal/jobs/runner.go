package jobs

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// RunnerParams configure the job runner.
type RunnerParams struct {
	Logger   *logger.Logger
	Metrics  *metrics.JobMetrics
	Gatherer prometheus.Gatherer
	// Textfile, when set, receives the gathered metrics after every run.
	Textfile string
}

// Runner executes jobs once with logging and metrics around them.
type Runner struct {
	logg     *logger.Logger
	metrics  *metrics.JobMetrics
	gatherer prometheus.Gatherer
	textfile string
}

// NewRunner builds a runner.
func NewRunner(params RunnerParams) (*Runner, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Runner{
		logg:     params.Logger,
		metrics:  params.Metrics,
		gatherer: params.Gatherer,
		textfile: params.Textfile,
	}, nil
}

// RunOnce runs job and returns its error. Failures are logged here with the
// stack trace so callers only need to choose an exit status.
func (r *Runner) RunOnce(ctx context.Context, job Job) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if job == nil {
		return fmt.Errorf("job required")
	}

	jobCtx := r.logg.WithJob(ctx, job.Name())
	jobCtx = r.logg.WithField(jobCtx, "event", "batch.job")
	r.logg.Info(jobCtx, "job start")
	start := time.Now()
	err := job.Run(jobCtx)
	duration := time.Since(start)
	r.metrics.ObserveDuration(job.Name(), duration)
	jobCtx = r.logg.WithField(jobCtx, "duration_ms", duration.Milliseconds())
	if err != nil {
		failCtx := r.logg.WithField(jobCtx, "error_dump", pkgerrors.Dump(err))
		if stack := pkgerrors.StackOf(err); stack != nil {
			r.logg.ErrorWithStack(failCtx, "job failed", err, stack)
		} else {
			r.logg.Error(failCtx, "job failed", err)
		}
		r.metrics.IncFailure(job.Name())
	} else {
		r.logg.Info(jobCtx, "job completed")
		r.metrics.IncSuccess(job.Name())
	}

	if werr := metrics.WriteTextfile(r.textfile, r.gatherer); werr != nil {
		r.logg.Warn(r.logg.WithField(jobCtx, "error", werr.Error()), "metrics textfile not written")
	}
	return err
}
