package analyzer

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/angelmondragon/sales-analytics/internal/sales"
	pkgerrors "github.com/angelmondragon/sales-analytics/pkg/errors"
)

// SuccessMarker is written last into a completed output directory.
const SuccessMarker = "_SUCCESS"

// partName names the i-th part file of a run.
func partName(i int, runID string) string {
	return fmt.Sprintf("part-%05d-%s.csv", i, runID)
}

// splitContiguous cuts n rows into at most parts contiguous ranges of near
// equal size, always at least one.
func splitContiguous(n, parts int) [][2]int {
	if parts < 1 {
		parts = 1
	}
	if n < parts {
		parts = n
	}
	if parts == 0 {
		return [][2]int{{0, 0}}
	}
	out := make([][2]int, 0, parts)
	base, rem := n/parts, n%parts
	start := 0
	for i := 0; i < parts; i++ {
		size := base
		if i < rem {
			size++
		}
		out = append(out, [2]int{start, start + size})
		start += size
	}
	return out
}

// writeOutput replaces dir with header-bearing CSV part-files and a success
// marker. Files are written into a sibling staging directory first so a
// failed run leaves any previous output untouched.
func writeOutput(dir, runID string, rows []sales.StateSalesSummary, partitions int) ([]string, error) {
	parent := filepath.Dir(dir)
	staging := filepath.Join(parent, fmt.Sprintf(".%s-%s.staging", filepath.Base(dir), runID))
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "create staging directory")
	}

	var parts []string
	for i, span := range splitContiguous(len(rows), partitions) {
		name := partName(i, runID)
		if err := writePart(filepath.Join(staging, name), rows[span[0]:span[1]]); err != nil {
			_ = os.RemoveAll(staging)
			return nil, err
		}
		parts = append(parts, name)
	}
	if err := os.WriteFile(filepath.Join(staging, SuccessMarker), nil, 0o644); err != nil {
		_ = os.RemoveAll(staging)
		return nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "write success marker")
	}

	if err := os.RemoveAll(dir); err != nil {
		_ = os.RemoveAll(staging)
		return nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "remove previous output")
	}
	if err := os.Rename(staging, dir); err != nil {
		_ = os.RemoveAll(staging)
		return nil, pkgerrors.Wrap(pkgerrors.CodeIO, err, "move output into place")
	}
	return parts, nil
}

func writePart(path string, rows []sales.StateSalesSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeIO, err, "create part file")
	}
	w := csv.NewWriter(f)
	_ = w.Write(sales.SummaryHeader())
	for _, r := range rows {
		_ = w.Write(r.CSV())
	}
	w.Flush()
	werr := w.Error()
	cerr := f.Close()
	if werr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeIO, werr, "write part file")
	}
	if cerr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeIO, cerr, "close part file")
	}
	return nil
}
