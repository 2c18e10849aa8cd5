package engine

import (
	"context"
	"fmt"
	"runtime"

	"github.com/angelmondragon/sales-analytics/internal/sales"
	"github.com/angelmondragon/sales-analytics/pkg/config"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
)

const salesTable = "sales_records"

// Engine hands out compute sessions.
type Engine interface {
	Kind() string
	Open(ctx context.Context) (Session, error)
}

// Session is one analyzer run's private view of the engine. Close must be
// called exactly once; it is safe to call it again.
type Session interface {
	ID() string
	// Load appends rows to the session's data set.
	Load(ctx context.Context, rows []sales.Row) error
	// StateSales aggregates the loaded rows per state, rounded and ordered.
	StateSales(ctx context.Context) ([]sales.StateSalesSummary, error)
	Close() error
}

// Params configure New.
type Params struct {
	Config   config.EngineConfig
	GCP      config.GCPConfig
	BigQuery config.BigQueryConfig
	Logger   *logger.Logger
}

// New returns the engine selected by the configured kind.
func New(params Params) (Engine, error) {
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	cfg := params.Config
	switch cfg.NormalizedKind() {
	case config.EngineSQLite:
		return &SQLite{memoryLimitMB: cfg.MemoryLimitMB, batchSize: cfg.BatchSize, logg: logg}, nil
	case config.EnginePostgres:
		if cfg.DSN == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "postgres engine requires a DSN")
		}
		return &Postgres{dsn: cfg.DSN, batchSize: cfg.BatchSize, poolSize: Parallelism(cfg.Parallelism), logg: logg}, nil
	case config.EngineBigQuery:
		return &BigQuery{gcp: params.GCP, cfg: params.BigQuery, logg: logg}, nil
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown engine kind %q", cfg.Kind)
	}
}

// Parallelism resolves a configured worker count; <= 0 means one per CPU.
func Parallelism(configured int) int {
	if configured > 0 {
		return configured
	}
	return runtime.NumCPU()
}

// checkRows rejects rows carrying values no engine can store faithfully.
func checkRows(rows []sales.Row) error {
	for i, r := range rows {
		if err := r.CheckFinite(); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, fmt.Sprintf("row %d", i))
		}
	}
	return nil
}

func engineError(err error, format string, args ...any) error {
	return pkgerrors.Wrap(pkgerrors.CodeEngine, err, fmt.Sprintf(format, args...))
}
