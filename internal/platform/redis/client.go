// Copyright (c) 2026 Voxdesk. All rights reserved.

// Package redis dials the Redis instance backing the refresh-rotation state.
//
// That is the only Redis-resident state in Voxdesk: per-subject rotation
// generations, which need TTL semantics and atomic Lua scripts. Everything
// durable lives in PostgreSQL.
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Rotation lookups sit on the refresh hot path, so the timeouts are tight:
// a slow Redis should surface as a failed refresh, not a hung request.
const (
	dialTimeout  = 3 * time.Second
	readTimeout  = 2 * time.Second
	writeTimeout = 2 * time.Second
	pingTimeout  = 2 * time.Second
)

/*
NewClient connects to Redis and verifies the connection before returning.

Parameters:
  - context: context.Context
  - redisURL: string (redis:// URL)
  - logger: *slog.Logger

Returns:
  - *redis.Client: Ready-to-use client
  - error: URL parse or connectivity failures
*/
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis_url_parse_failed: %w", err)
	}

	options.PoolSize = 10
	options.MinIdleConns = 2
	options.DialTimeout = dialTimeout
	options.ReadTimeout = readTimeout
	options.WriteTimeout = writeTimeout

	client := redis.NewClient(options)

	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis connected", slog.String("addr", options.Addr))

	return client, nil
}

// Ping reports whether Redis is reachable, bounded by pingTimeout. The
// readiness probe calls this on every scrape.
func Ping(context stdctx.Context, client *redis.Client) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis_ping_failed: %w", err)
	}
	return nil
}
