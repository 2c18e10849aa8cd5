package analyzer

import (
	"github.com/angelmondragon/sales-analytics/internal/engine"
	"github.com/angelmondragon/sales-analytics/internal/ingest"
	"github.com/angelmondragon/sales-analytics/internal/sales"
)

// State is carried through the analyzer steps of one run.
type State struct {
	RunID      string
	WorkDir    string
	InputPath  string
	MetricsDir string
	OutputDir  string

	Session engine.Session

	InputExists bool
	Rows        []sales.Row
	Stats       ingest.Stats
	Summaries   []sales.StateSalesSummary
	Parts       []string
}
