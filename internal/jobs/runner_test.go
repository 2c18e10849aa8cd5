package jobs

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testJob struct {
	name string
	err  error
	runs int
}

func (t *testJob) Name() string { return t.name }

func (t *testJob) Run(context.Context) error {
	t.runs++
	return t.err
}

func TestNewRunnerRequiresLogger(t *testing.T) {
	if _, err := NewRunner(RunnerParams{}); err == nil {
		t.Fatalf("expected error without logger")
	}
}

func TestRunOnceReturnsJobErrorAndLogsStack(t *testing.T) {
	var buf bytes.Buffer
	logg := logger.New(logger.Options{ServiceName: "jobs-test", Output: &buf})
	runner, err := NewRunner(RunnerParams{Logger: logg})
	require.NoError(t, err)

	want := errors.New("boom")
	job := &testJob{name: "analyze-sales", err: want}
	got := runner.RunOnce(context.Background(), job)

	require.ErrorIs(t, got, want)
	assert.Equal(t, 1, job.runs)
	out := buf.String()
	assert.Contains(t, out, `"job":"analyze-sales"`)
	assert.Contains(t, out, `"message":"job failed"`)
	assert.Contains(t, out, `"stack":`)
}

func TestRunOnceWritesMetricsTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	path := filepath.Join(t.TempDir(), "sales.prom")
	runner, err := NewRunner(RunnerParams{
		Logger:   logger.Nop(),
		Metrics:  metrics.NewJobMetrics(reg),
		Gatherer: reg,
		Textfile: path,
	})
	require.NoError(t, err)

	require.NoError(t, runner.RunOnce(context.Background(), Func("generate-sales", func(context.Context) error { return nil })))
	require.Error(t, runner.RunOnce(context.Background(), Func("analyze-sales", func(context.Context) error { return errors.New("x") })))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `job_success{job="generate-sales"} 1`)
	assert.Contains(t, text, `job_failure{job="analyze-sales"} 1`)
	assert.True(t, strings.Contains(text, "job_duration_seconds_count"))
}

func TestFuncJobNilRun(t *testing.T) {
	job := Func("noop", nil)
	assert.Equal(t, "noop", job.Name())
	assert.NoError(t, job.Run(context.Background()))
}

func TestRunOnceLogsPanicStack(t *testing.T) {
	var buf bytes.Buffer
	runner, err := NewRunner(RunnerParams{Logger: logger.New(logger.Options{Output: &buf})})
	require.NoError(t, err)

	panicErr := pkgerrors.FromPanic("boom", []byte("goroutine 7 [running]:\nanalyzer.step()"))
	require.Error(t, runner.RunOnce(context.Background(), Func("analyze-sales", func(context.Context) error { return panicErr })))

	out := buf.String()
	assert.Contains(t, out, "goroutine 7 [running]")
	assert.Contains(t, out, `"code":"INTERNAL_ERROR"`)
}
