package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/angelmondragon/sales-analytics/pkg/config"
	"github.com/angelmondragon/sales-analytics/pkg/db"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/migrate"
	"github.com/joho/godotenv"
)

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "migrate", Level: os.Getenv(config.EnvLogLevel)})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|validate")
	dir := flag.String("dir", migrate.DefaultDir, "migrations directory (for validate)")
	flag.Parse()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx = logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    *cmd,
		"engine": cfg.Engine.NormalizedKind(),
	})

	if *cmd == "validate" {
		if err := migrate.ValidateDir(*dir); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return
	}

	dbCfg, err := dbConfig(cfg.Engine)
	requireResource(ctx, logg, "engine database", err)

	dbClient, err := db.New(ctx, dbCfg, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	sqlDB, err := dbClient.SQL()
	requireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up":
		results, err := migrate.Up(ctx, sqlDB, dbCfg.Driver)
		exitOnError("goose up", err)
		for _, r := range results {
			fmt.Printf("applied %d %s\n", r.Source.Version, r.Source.Path)
		}

	case "down":
		result, err := migrate.Down(ctx, sqlDB, dbCfg.Driver)
		exitOnError("goose down", err)
		fmt.Printf("rolled back %d %s\n", result.Source.Version, result.Source.Path)

	case "status":
		statuses, err := migrate.Status(ctx, sqlDB, dbCfg.Driver)
		exitOnError("goose status", err)
		for _, s := range statuses {
			fmt.Printf("%d\t%s\t%s\n", s.Source.Version, s.State, s.Source.Path)
		}

	case "version":
		version, err := migrate.Version(ctx, sqlDB, dbCfg.Driver)
		exitOnError("goose version", err)
		fmt.Println(version)

	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
}

// dbConfig targets the database the configured engine keeps its staging
// rows in. SQLite needs a file DSN here since session databases are private.
func dbConfig(cfg config.EngineConfig) (db.Config, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	switch cfg.NormalizedKind() {
	case config.EnginePostgres:
		return db.Config{Driver: db.DriverPostgres, DSN: dsn}, nil
	case config.EngineSQLite:
		if dsn == "" {
			return db.Config{}, fmt.Errorf("%s is required to migrate a sqlite database", config.EnvEngineDSN)
		}
		return db.Config{Driver: db.DriverSQLite, DSN: dsn}, nil
	default:
		return db.Config{}, fmt.Errorf("engine %q has no migrations", cfg.Kind)
	}
}

func exitOnError(op string, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "%s failed: %v\n", op, err)
	os.Exit(1)
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
