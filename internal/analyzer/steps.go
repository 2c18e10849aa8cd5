package analyzer

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/angelmondragon/sales-analytics/internal/ingest"
	"github.com/angelmondragon/sales-analytics/internal/publish"
	"github.com/angelmondragon/sales-analytics/internal/sales"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
)

// Step is one stage of an analyzer run.
type Step interface {
	Name() string
	Execute(ctx context.Context, state *State) error
}

// resolveInputStep reports whether the input exists. A missing file is not
// an error here; the read step fails with NOT_FOUND.
type resolveInputStep struct {
	svc *Service
}

func (s *resolveInputStep) Name() string { return "resolve_input" }

func (s *resolveInputStep) Execute(ctx context.Context, state *State) error {
	_, err := os.Stat(state.InputPath)
	state.InputExists = err == nil
	s.svc.logg.Info(s.svc.logg.WithFields(ctx, map[string]any{
		"input_path":  state.InputPath,
		"file_exists": state.InputExists,
	}), "reading sales data")
	return nil
}

// readSalesStep parses the input under the explicit schema and loads the
// accepted rows into the session.
type readSalesStep struct {
	svc *Service
}

func (s *readSalesStep) Name() string { return "read_sales" }

func (s *readSalesStep) Execute(ctx context.Context, state *State) error {
	logg := s.svc.logg
	rows, stats, err := ingest.ReadFile(ctx, state.InputPath, ingest.Options{
		Schema:      sales.IngestSchema,
		Parallelism: s.svc.parallelism,
		Logger:      logg,
	})
	if err != nil {
		return err
	}
	state.Rows = rows
	state.Stats = stats
	s.svc.metrics.AddRows(JobName, "accepted", stats.Accepted)
	s.svc.metrics.AddRows(JobName, "dropped", stats.Dropped)

	logg.Info(logg.WithFields(ctx, map[string]any{
		"rows_read":     stats.Read,
		"rows_accepted": stats.Accepted,
		"rows_dropped":  stats.Dropped,
	}), "sales data read")
	logg.Info(logg.WithField(ctx, "schema", sales.IngestSchema.Tree()), "dataframe schema")
	logg.Info(logg.WithField(ctx, "rows", sampleRows(rows, s.svc.cfg.SampleRows)), "sample data")

	return state.Session.Load(ctx, rows)
}

// sampleRows renders the first n rows keyed by column name.
func sampleRows(rows []sales.Row, n int) []map[string]any {
	if n > len(rows) {
		n = len(rows)
	}
	if n < 0 {
		n = 0
	}
	names := sales.IngestSchema.Names()
	out := make([]map[string]any, 0, n)
	for _, r := range rows[:n] {
		values := r.CSV()
		m := make(map[string]any, len(names))
		for i, name := range names {
			if values[i] == "" {
				m[name] = nil
				continue
			}
			m[name] = values[i]
		}
		out = append(out, m)
	}
	return out
}

type ensureMetricsDirStep struct {
	svc *Service
}

func (s *ensureMetricsDirStep) Name() string { return "ensure_metrics_dir" }

func (s *ensureMetricsDirStep) Execute(ctx context.Context, state *State) error {
	s.svc.logg.Info(s.svc.logg.WithField(ctx, "metrics_dir", state.MetricsDir), "creating metrics directory")
	if err := os.MkdirAll(state.MetricsDir, 0o755); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeIO, err, "create metrics directory")
	}
	return nil
}

type aggregateStep struct {
	svc *Service
}

func (s *aggregateStep) Name() string { return "aggregate_state_sales" }

func (s *aggregateStep) Execute(ctx context.Context, state *State) error {
	s.svc.logg.Info(ctx, "generating state sales analysis")
	summaries, err := state.Session.StateSales(ctx)
	if err != nil {
		return err
	}
	state.Summaries = summaries
	return nil
}

type writeOutputStep struct {
	svc *Service
}

func (s *writeOutputStep) Name() string { return "write_output" }

func (s *writeOutputStep) Execute(ctx context.Context, state *State) error {
	parts, err := writeOutput(state.OutputDir, state.RunID, state.Summaries, s.svc.cfg.OutputPartitions)
	if err != nil {
		return err
	}
	state.Parts = parts
	s.svc.metrics.AddRows(JobName, "written", len(state.Summaries))
	s.svc.logg.Info(s.svc.logg.WithFields(ctx, map[string]any{
		"output_dir": state.OutputDir,
		"parts":      strings.Join(parts, ","),
		"rows":       len(state.Summaries),
	}), "state sales written")
	return nil
}

type publishStep struct {
	svc *Service
}

func (s *publishStep) Name() string { return "publish_output" }

func (s *publishStep) Execute(ctx context.Context, state *State) error {
	if !s.svc.publisher.Enabled() {
		return nil
	}
	keyPrefix := path.Join(s.svc.cfg.MetricsDir, s.svc.cfg.OutputName)
	files, err := publish.DirFiles(state.OutputDir, keyPrefix)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeIO, err, fmt.Sprintf("list %s", state.OutputDir))
	}
	return s.svc.publisher.Replace(ctx, keyPrefix, markerLast(files))
}

// markerLast moves the success marker behind the part files so a remote
// reader never sees the marker before the data.
func markerLast(files []publish.File) []publish.File {
	out := make([]publish.File, 0, len(files))
	var marker []publish.File
	for _, f := range files {
		if path.Base(f.Key) == SuccessMarker {
			marker = append(marker, f)
			continue
		}
		out = append(out, f)
	}
	return append(out, marker...)
}
