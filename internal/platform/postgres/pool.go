// Copyright (c) 2026 Voxdesk. All rights reserved.

// Package postgres owns the physical PostgreSQL connection pool.
//
// Repositories implementing the domain store interfaces live next to their
// domains and receive the pool as a dependency; this package only dials,
// tunes, and health-checks it.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anujmtekyz/voxdesk/internal/platform/constants"
)

// poolTuning carries the pool parameters for the Voxdesk workload: short
// bursty API queries, no long-running analytical work.
type poolTuning struct {
	maxConns          int32
	minConns          int32
	maxConnLifetime   time.Duration
	maxConnIdleTime   time.Duration
	healthCheckPeriod time.Duration
	connectTimeout    time.Duration
}

var defaultTuning = poolTuning{
	maxConns:          25,
	minConns:          5,
	maxConnLifetime:   time.Hour,
	maxConnIdleTime:   10 * time.Minute,
	healthCheckPeriod: time.Minute,
	connectTimeout:    5 * time.Second,
}

// pingTimeout bounds every health-check ping, both at startup and from the
// readiness probe.
const pingTimeout = 2 * time.Second

/*
NewPool dials PostgreSQL and returns a validated connection pool.

Description: Applies the default tuning, caps every statement at the global
request timeout, and fails fast when the database is unreachable rather than
letting the first request discover it.

Parameters:
  - ctx: context.Context
  - dsn: string (libpq keyword string or postgres:// URL)
  - logger: *slog.Logger

Returns:
  - *pgxpool.Pool: Ready-to-use pool
  - error: DSN parse, dial, or ping failures
*/
func NewPool(ctx context.Context, dsn string, logger *slog.Logger) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres_dsn_parse_failed: %w", err)
	}

	cfg.MaxConns = defaultTuning.maxConns
	cfg.MinConns = defaultTuning.minConns
	cfg.MaxConnLifetime = defaultTuning.maxConnLifetime
	cfg.MaxConnIdleTime = defaultTuning.maxConnIdleTime
	cfg.HealthCheckPeriod = defaultTuning.healthCheckPeriod
	cfg.ConnConfig.ConnectTimeout = defaultTuning.connectTimeout

	// No statement may outlive the request that issued it.
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		_, err := conn.Exec(ctx, fmt.Sprintf(
			"SET statement_timeout = '%ds'", int(constants.GlobalRequestTimeout.Seconds())))
		return err
	}

	dialCtx, cancel := context.WithTimeout(ctx, defaultTuning.connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(dialCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres_pool_create_failed: %w", err)
	}

	if err := Ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("postgres pool ready",
		slog.Int("max_conns", int(pool.Stat().MaxConns())),
	)

	return pool, nil
}

// Ping reports whether the pool can reach the database, bounded by
// pingTimeout. The readiness probe calls this on every scrape.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("postgres_ping_failed: %w", err)
	}
	return nil
}
