// Package database wraps the optional PostgreSQL connection pool.
package database

import (
	"context"
	"fmt"
	"time"

	pgx "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rajasatyajit/SasmexMonitor/config"
	apperrors "github.com/rajasatyajit/SasmexMonitor/internal/errors"
	"github.com/rajasatyajit/SasmexMonitor/internal/logger"
	"github.com/rajasatyajit/SasmexMonitor/internal/metrics"
)

const statementTimeout = 30 * time.Second

var errNotConfigured = fmt.Errorf("database not configured: %w", apperrors.ErrServiceUnavailable)

// DB represents a database connection
type DB struct {
	pool   *pgxpool.Pool
	cfg    config.DatabaseConfig
	cancel context.CancelFunc
}

// New connects to cfg.URL. An empty URL yields an unconfigured DB, and the
// caller falls back to another store.
func New(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	if cfg.URL == "" {
		logger.Info("DATABASE_URL not set; PostgreSQL store disabled")
		return &DB{cfg: cfg}, nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, apperrors.DatabaseError{Operation: "parse url", Err: err}
	}

	poolCfg.MaxConns = int32(cfg.MaxConns)
	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		logger.Debug("Database connection established")
		return nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, apperrors.DatabaseError{Operation: "connect", Err: err}
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, apperrors.DatabaseError{Operation: "ping", Err: err}
	}

	statsCtx, stop := context.WithCancel(context.Background())
	db := &DB{pool: pool, cfg: cfg, cancel: stop}
	go db.collectMetrics(statsCtx)

	logger.Info("Database connection established",
		"max_conns", cfg.MaxConns,
		"min_conns", cfg.MinConns,
	)
	return db, nil
}

// Close closes the database connection
func (d *DB) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.pool != nil {
		d.pool.Close()
		logger.Info("Database connection closed")
	}
}

// collectMetrics samples the pool until ctx ends
func (d *DB) collectMetrics(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.SetDBConnectionsActive(float64(d.pool.Stat().AcquiredConns()))
		}
	}
}

func observe(op, sql string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
		logger.Error("Database "+op+" failed", "error", err, "sql", sql)
	}
	metrics.RecordDBQuery(op, status)
	logger.Debug("Database "+op, "sql", sql, "duration_ms", time.Since(start).Milliseconds())
}

// Exec executes a statement
func (d *DB) Exec(ctx context.Context, sql string, args ...any) error {
	if d.pool == nil {
		return errNotConfigured
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, statementTimeout)
	defer cancel()

	_, err := d.pool.Exec(ctx, sql, args...)
	observe("exec", sql, start, err)
	if err != nil {
		return apperrors.DatabaseError{Operation: "exec", Err: err}
	}
	return nil
}

// Query executes a query and returns pgx.Rows. The statement timeout is not
// applied here because the caller reads the rows after Query returns.
func (d *DB) Query(ctx context.Context, sql string, args ...any) (interface{}, error) {
	if d.pool == nil {
		return nil, errNotConfigured
	}

	start := time.Now()
	rows, err := d.pool.Query(ctx, sql, args...)
	observe("query", sql, start, err)
	if err != nil {
		return nil, apperrors.DatabaseError{Operation: "query", Err: err}
	}
	return rows, nil
}

// QueryRow executes a query that returns a single row
func (d *DB) QueryRow(ctx context.Context, sql string, args ...any) interface{} {
	if d.pool == nil {
		return nil
	}
	metrics.RecordDBQuery("query_row", "success")
	return d.pool.QueryRow(ctx, sql, args...)
}

// Health checks database connectivity
func (d *DB) Health(ctx context.Context) error {
	if d.pool == nil {
		return errNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := d.pool.Ping(ctx); err != nil {
		return apperrors.DatabaseError{Operation: "ping", Err: err}
	}
	return nil
}

// IsConfigured returns true if database is configured
func (d *DB) IsConfigured() bool {
	return d.pool != nil
}
