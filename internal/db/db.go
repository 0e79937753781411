package db

import (
	"context"
	"fmt"
	"time"

	"pennycentral/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultIdleTime    = 5 * time.Minute
	defaultLifetime    = 30 * time.Minute
	defaultPingTimeout = 5 * time.Second
)

// Connect opens a pgx pool tuned from cfg and pings it before returning.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

// poolConfig parses the DSN and applies the limits. Zero values keep the
// package defaults; MaxConns and MinConns fall back to pgx's own.
func poolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	poolCfg.MaxConnIdleTime = defaultIdleTime
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	poolCfg.MaxConnLifetime = defaultLifetime
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if poolCfg.MinConns > poolCfg.MaxConns {
		return nil, fmt.Errorf("min conns %d exceeds max conns %d", poolCfg.MinConns, poolCfg.MaxConns)
	}
	return poolCfg, nil
}
