package engine

import (
	"context"
	"fmt"
	"math"
	"runtime/debug"
	"sync"

	"github.com/angelmondragon/sales-analytics/pkg/config"
	"github.com/angelmondragon/sales-analytics/pkg/db"
	"github.com/angelmondragon/sales-analytics/pkg/logger"
	"github.com/angelmondragon/sales-analytics/pkg/migrate"
	"github.com/google/uuid"
)

// memoryLimitMu serialises changes to the process-wide soft memory limit.
var memoryLimitMu sync.Mutex

// SQLite runs every session in its own private in-memory database.
type SQLite struct {
	memoryLimitMB int
	batchSize     int
	logg          *logger.Logger
}

func (e *SQLite) Kind() string { return config.EngineSQLite }

// Open creates a fresh in-memory database, applies the migrations and, when
// configured, lowers the process soft memory limit until Close.
func (e *SQLite) Open(ctx context.Context) (Session, error) {
	id := uuid.NewString()
	client, err := db.New(ctx, db.Config{
		Driver: db.DriverSQLite,
		DSN:    fmt.Sprintf("file:sales_%s?mode=memory&cache=shared", id),
		// The database lives as long as one connection holds it open.
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, nil)
	if err != nil {
		return nil, engineError(err, "open sqlite session")
	}
	if err := migrate.EnsureSchema(ctx, client, e.logg); err != nil {
		_ = client.Close()
		return nil, engineError(err, "migrate sqlite session")
	}

	s := &sqliteSession{sqlSession: newSQLSession(id, client, e.batchSize), prevLimit: -1}
	if e.memoryLimitMB > 0 {
		s.prevLimit = setMemoryLimit(int64(e.memoryLimitMB) << 20)
	}
	return s, nil
}

type sqliteSession struct {
	*sqlSession
	prevLimit int64
}

func (s *sqliteSession) Close() error {
	if !s.markClosed() {
		return nil
	}
	if s.prevLimit >= 0 {
		setMemoryLimit(s.prevLimit)
	}
	if err := s.client.Close(); err != nil {
		return engineError(err, "close sqlite session")
	}
	return nil
}

// setMemoryLimit sets the soft memory limit and returns the previous one.
func setMemoryLimit(limit int64) int64 {
	memoryLimitMu.Lock()
	defer memoryLimitMu.Unlock()
	if limit <= 0 {
		limit = math.MaxInt64
	}
	return debug.SetMemoryLimit(limit)
}
