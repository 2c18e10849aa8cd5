package analyzer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/angelmondragon/sales-analytics/internal/engine"
	"github.com/angelmondragon/sales-analytics/internal/publish"
	"github.com/angelmondragon/sales-analytics/pkg/config"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/metrics"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// JobName labels the analyzer in logs and metrics.
const JobName = "analyze-sales"

// Params configure the analyzer service.
type Params struct {
	Config       config.AnalyzerConfig
	EngineConfig config.EngineConfig
	Engine       engine.Engine
	Publisher    *publish.Publisher
	Logger       *logger.Logger
	Metrics      *metrics.JobMetrics
}

// Service runs the state sales analysis once per Run call.
type Service struct {
	cfg         config.AnalyzerConfig
	engineCfg   config.EngineConfig
	engine      engine.Engine
	publisher   *publish.Publisher
	logg        *logger.Logger
	metrics     *metrics.JobMetrics
	parallelism int
	steps       []Step
}

// NewService validates params and wires the default step list.
func NewService(params Params) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Engine == nil {
		return nil, fmt.Errorf("engine required")
	}
	cfg := params.Config
	if cfg.InputFile == "" {
		cfg.InputFile = "sales_data.csv"
	}
	if cfg.MetricsDir == "" {
		cfg.MetricsDir = "metrics"
	}
	if cfg.OutputName == "" {
		cfg.OutputName = "state_sales"
	}
	if cfg.OutputPartitions < 1 {
		cfg.OutputPartitions = 1
	}

	svc := &Service{
		cfg:         cfg,
		engineCfg:   params.EngineConfig,
		engine:      params.Engine,
		publisher:   params.Publisher,
		logg:        params.Logger,
		metrics:     params.Metrics,
		parallelism: engine.Parallelism(params.EngineConfig.Parallelism),
	}
	svc.steps = []Step{
		&resolveInputStep{svc: svc},
		&readSalesStep{svc: svc},
		&ensureMetricsDirStep{svc: svc},
		&aggregateStep{svc: svc},
		&writeOutputStep{svc: svc},
		&publishStep{svc: svc},
	}
	return svc, nil
}

func (s *Service) Name() string { return JobName }

// Run executes one analysis. The session is released on every path,
// including a panicking step.
func (s *Service) Run(ctx context.Context) (err error) {
	runID := uuid.NewString()
	ctx = s.logg.WithRunID(ctx, runID)

	cwd, cwdErr := os.Getwd()
	if cwdErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeIO, cwdErr, "resolve working directory")
	}
	workDir := s.cfg.WorkDir
	if workDir == "" {
		workDir = cwd
	}
	if abs, absErr := filepath.Abs(workDir); absErr == nil {
		workDir = abs
	}
	inputPath := s.cfg.InputFile
	if !filepath.IsAbs(inputPath) {
		inputPath = filepath.Join(workDir, inputPath)
	}
	metricsDir := filepath.Join(workDir, s.cfg.MetricsDir)

	state := &State{
		RunID:      runID,
		WorkDir:    workDir,
		InputPath:  inputPath,
		MetricsDir: metricsDir,
		OutputDir:  filepath.Join(metricsDir, s.cfg.OutputName),
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"cwd":             cwd,
		"work_dir":        workDir,
		"input_path":      inputPath,
		"engine":          s.engine.Kind(),
		"parallelism":     s.parallelism,
		"memory_limit_mb": s.engineCfg.MemoryLimitMB,
	}), "starting analysis")

	session, err := s.engine.Open(ctx)
	if err != nil {
		return err
	}
	state.Session = session
	ctx = s.logg.WithField(ctx, "session_id", session.ID())

	defer func() {
		if cerr := session.Close(); cerr != nil {
			err = multierr.Append(err, cerr)
		}
		s.logg.Info(ctx, "compute session closed")
	}()
	defer func() {
		if r := recover(); r != nil {
			err = pkgerrors.FromPanic(r, debug.Stack())
		}
	}()

	for _, step := range s.steps {
		stepCtx := s.logg.WithField(ctx, "step", step.Name())
		s.logg.Debug(stepCtx, "step start")
		if err := step.Execute(stepCtx, state); err != nil {
			return err
		}
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"states":     len(state.Summaries),
		"output_dir": state.OutputDir,
	}), "analysis completed")
	return nil
}
