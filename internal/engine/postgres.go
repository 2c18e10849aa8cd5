package engine

import (
	"context"
	"time"

	"github.com/angelmondragon/sales-analytics/pkg/config"
	"github.com/angelmondragon/sales-analytics/pkg/db"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/migrate"
	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const cleanupTimeout = 30 * time.Second

// Postgres runs sessions against a shared sales_records table, isolating
// them by session id.
type Postgres struct {
	dsn       string
	batchSize int
	poolSize  int
	logg      *logger.Logger
}

func (e *Postgres) Kind() string { return config.EnginePostgres }

func (e *Postgres) Open(ctx context.Context) (Session, error) {
	client, err := db.New(ctx, db.Config{
		Driver:          db.DriverPostgres,
		DSN:             e.dsn,
		MaxOpenConns:    e.poolSize,
		MaxIdleConns:    e.poolSize,
		ConnMaxLifetime: time.Hour,
	}, e.logg)
	if err != nil {
		return nil, engineError(err, "open postgres session")
	}
	if err := client.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, engineError(err, "ping postgres")
	}
	if err := migrate.EnsureSchema(ctx, client, e.logg); err != nil {
		_ = client.Close()
		return nil, engineError(err, "migrate postgres")
	}
	return &postgresSession{sqlSession: newSQLSession(uuid.NewString(), client, e.batchSize)}, nil
}

type postgresSession struct {
	*sqlSession
}

// Close deletes the session's rows and releases the pool.
func (s *postgresSession) Close() error {
	if !s.markClosed() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	var err error
	if res := s.client.Exec(ctx, "DELETE FROM sales_records WHERE session_id = ?", s.id); res.Error != nil {
		err = multierr.Append(err, res.Error)
	}
	err = multierr.Append(err, s.client.Close())
	if err != nil {
		return engineError(err, "close postgres session")
	}
	return nil
}
