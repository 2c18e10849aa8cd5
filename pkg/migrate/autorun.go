package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/sales-analytics/pkg/db"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
)

// EnsureSchema applies pending migrations on the client's database and logs
// what ran.
func EnsureSchema(ctx context.Context, client *db.Client, logg *logger.Logger) error {
	if client == nil {
		return fmt.Errorf("db client is required")
	}
	if logg == nil {
		logg = logger.Nop()
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	results, err := Up(ctx, sqlDB, client.Driver())
	if err != nil {
		return err
	}
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		logg.Debug(logg.WithFields(ctx, map[string]any{
			"version":     r.Source.Version,
			"duration_ms": r.Duration.Milliseconds(),
		}), "migration applied")
	}
	return nil
}
