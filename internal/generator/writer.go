package generator

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"

	"github.com/angelmondragon/sales-analytics/internal/sales"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
)

const cancelCheckEvery = 10000

// WriteCSV writes a header and exactly n records to w.
func (g *Generator) WriteCSV(ctx context.Context, w io.Writer, n int) (int, error) {
	if n < 0 {
		return 0, pkgerrors.Newf(pkgerrors.CodeValidation, "record count must be non-negative, got %d", n)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(sales.RecordHeader()); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeIO, err, "write header")
	}

	written := 0
	for written < n {
		if written%cancelCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return written, err
			}
		}
		rec, err := g.Next()
		if err != nil {
			return written, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "generated record rejected")
		}
		if err := cw.Write(rec.CSV()); err != nil {
			return written, pkgerrors.Wrap(pkgerrors.CodeIO, err, "write record")
		}
		written++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return written, pkgerrors.Wrap(pkgerrors.CodeIO, err, "flush records")
	}
	return written, nil
}

// WriteFile creates or overwrites path with n records. Missing parent
// directories are created.
func (g *Generator) WriteFile(ctx context.Context, path string, n int) (int, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeIO, err, "create output directory")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeIO, err, "create output file")
	}

	written, err := g.WriteCSV(ctx, f, n)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = pkgerrors.Wrap(pkgerrors.CodeIO, cerr, "close output file")
	}
	return written, err
}
