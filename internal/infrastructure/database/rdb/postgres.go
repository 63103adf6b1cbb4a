package rdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/pannpers/go-logging/logging"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// Database wraps the pipeline's sole Postgres handle.
type Database struct {
	DB     *bun.DB
	logger *logging.Logger
}

// New opens a bun.DB over the given DSN, verifies connectivity, and applies
// the pool size limits from configuration.
func New(ctx context.Context, dsn string, maxOpenConns, maxIdleConns int, logger *logging.Logger) (*Database, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	sqldb.SetMaxOpenConns(maxOpenConns)
	sqldb.SetMaxIdleConns(maxIdleConns)

	db := bun.NewDB(sqldb, pgdialect.New())

	database := &Database{DB: db, logger: logger}
	if err := database.Ping(ctx); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info(ctx, "database connection established",
		slog.Int("max_open_conns", maxOpenConns),
		slog.Int("max_idle_conns", maxIdleConns),
	)

	return database, nil
}

const pingTimeout = 5 * time.Second

// Ping verifies the database connection.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// NewStdlibDB opens a *sql.DB over the same DSN for exclusive use by the
// goose migration runner; the caller must close it after use.
func NewStdlibDB(dsn string) *sql.DB {
	return sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
}

// Close closes the underlying connection pool. Registered against the
// Datastore shutdown phase, run last.
func (d *Database) Close() error {
	d.logger.Info(context.Background(), "closing database connection")
	return d.DB.Close()
}
