package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"sort"
	"strings"

	"github.com/angelmondragon/sales-analytics/internal/sales"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const defaultChunkSize = 4096

// Options configure a read.
type Options struct {
	// Schema defaults to sales.IngestSchema.
	Schema sales.Schema
	// Parallelism <= 0 uses one worker per CPU.
	Parallelism int
	ChunkSize   int
	Logger      *logger.Logger
}

// Stats summarise a read. Read counts data lines, excluding the header.
type Stats struct {
	Read     int
	Accepted int
	Dropped  int
}

type chunk struct {
	seq   int
	first int // record number of the first line, header is 1
	lines [][]string
}

type parsed struct {
	seq     int
	rows    []sales.Row
	dropped int
}

// ReadFile reads path with the explicit schema. A missing file is NOT_FOUND.
func ReadFile(ctx context.Context, path string, opts Options) ([]sales.Row, Stats, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Stats{}, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, fmt.Sprintf("input file %s does not exist", path))
		}
		return nil, Stats{}, pkgerrors.Wrap(pkgerrors.CodeIO, err, "open input file")
	}
	defer f.Close()
	return Read(ctx, f, opts)
}

// Read parses header-bearing CSV from r. Columns are bound to the schema by
// header name. Rows whose field count differs from the header, or whose
// values fail to parse as their column type, are dropped and counted.
func Read(ctx context.Context, r io.Reader, opts Options) ([]sales.Row, Stats, error) {
	schema := opts.Schema
	if len(schema) == 0 {
		schema = sales.IngestSchema
	}
	workers := opts.Parallelism
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	chunkSize := opts.ChunkSize
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	logg := opts.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, Stats{}, pkgerrors.New(pkgerrors.CodeValidation, "input has no header row")
		}
		return nil, Stats{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read header")
	}
	binding, err := bind(schema, header)
	if err != nil {
		return nil, Stats{}, err
	}

	var stats Stats
	chunks := make(chan chunk, workers)
	results := make([][]parsed, workers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(chunks)
		return produce(gctx, cr, chunkSize, len(header), chunks, &stats, logg)
	})
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for c := range chunks {
				results[w] = append(results[w], parseChunk(gctx, c, schema, binding, logg))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, Stats{}, err
	}

	var all []parsed
	for _, slot := range results {
		all = append(all, slot...)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].seq < all[j].seq })

	rows := make([]sales.Row, 0, stats.Read)
	for _, p := range all {
		rows = append(rows, p.rows...)
		stats.Dropped += p.dropped
	}
	stats.Accepted = len(rows)
	return rows, stats, nil
}

// bind maps each schema column to its position in the header.
func bind(schema sales.Schema, header []string) ([]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}
	binding := make([]int, len(schema))
	var missing []string
	for i, col := range schema {
		pos, ok := positions[col.Name]
		if !ok {
			missing = append(missing, col.Name)
			continue
		}
		binding[i] = pos
	}
	if len(missing) > 0 {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "input header is missing columns: %s", strings.Join(missing, ", ")).
			WithDetails(map[string]any{"header": header, "missing": missing})
	}
	return binding, nil
}

// produce reads records and hands them to the workers in chunks. Records with
// the wrong field count or broken quoting are dropped here.
func produce(ctx context.Context, cr *csv.Reader, size, width int, out chan<- chunk, stats *Stats, logg *logger.Logger) error {
	seq := 0
	line := 1
	cur := chunk{seq: seq, first: line + 1}
	flush := func() error {
		if len(cur.lines) == 0 {
			return nil
		}
		select {
		case out <- cur:
		case <-ctx.Done():
			return ctx.Err()
		}
		seq++
		cur = chunk{seq: seq}
		return nil
	}

	droppedHere := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return pkgerrors.Wrap(pkgerrors.CodeIO, err, "read input")
			}
			stats.Read++
			droppedHere++
			logg.Debug(logg.WithFields(ctx, map[string]any{"line": line, "reason": perr.Err.Error()}), "dropping malformed row")
			continue
		}
		stats.Read++
		if len(rec) != width {
			droppedHere++
			logg.Debug(logg.WithFields(ctx, map[string]any{"line": line, "fields": len(rec), "expected": width}), "dropping malformed row")
			continue
		}
		if len(cur.lines) == 0 {
			cur.first = line
		}
		cur.lines = append(cur.lines, rec)
		if len(cur.lines) >= size {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}
	stats.Dropped += droppedHere
	return nil
}

func parseChunk(ctx context.Context, c chunk, schema sales.Schema, binding []int, logg *logger.Logger) parsed {
	out := parsed{seq: c.seq, rows: make([]sales.Row, 0, len(c.lines))}
	for i, fields := range c.lines {
		row, err := parseRow(fields, schema, binding)
		if err != nil {
			out.dropped++
			logg.Debug(logg.WithFields(ctx, map[string]any{"line": c.first + i, "reason": err.Error()}), "dropping malformed row")
			continue
		}
		out.rows = append(out.rows, row)
	}
	return out
}

func parseRow(fields []string, schema sales.Schema, binding []int) (sales.Row, error) {
	var row sales.Row
	for i, col := range schema {
		if err := row.Assign(col, fields[binding[i]]); err != nil {
			return sales.Row{}, err
		}
	}
	return row, nil
}
