package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-practice/internal/config"
	"github.com/stemsi/exstem-practice/internal/store"
)

// Connections bundles every external resource the server holds open.
// Redis is nil when neither the slot store nor the result queue needs it.
type Connections struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
	Slots store.Backend

	closers []func()
}

// Connect opens PostgreSQL, Redis (for the redis store driver) and the session slot
// backend. On error everything opened so far is closed again.
func Connect(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Connections, error) {
	conns := &Connections{}

	pool, err := NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	conns.Pool = pool
	conns.closers = append(conns.closers, pool.Close)

	if cfg.StoreDriver == config.StoreDriverRedis {
		rdb, err := NewRedisClient(ctx, cfg, log)
		if err != nil {
			conns.Close()
			return nil, err
		}
		conns.Redis = rdb
		conns.closers = append(conns.closers, func() { _ = rdb.Close() })
	}

	switch cfg.StoreDriver {
	case config.StoreDriverRedis:
		conns.Slots = store.NewRedisBackend(conns.Redis, cfg.SlotTTL)
	case config.StoreDriverSQLite:
		backend, err := store.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			conns.Close()
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		conns.Slots = backend
		conns.closers = append(conns.closers, func() { _ = backend.Close() })
	case config.StoreDriverMemory:
		log.Warn().Msg("Session slots kept in memory; they will not survive a restart")
		conns.Slots = store.NewMemoryBackend()
	default:
		conns.Close()
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}

	log.Info().Str("store_driver", cfg.StoreDriver).Msg("Session store ready")
	return conns, nil
}

// Close releases resources in reverse opening order.
func (c *Connections) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// NewPostgresPool creates and validates a PostgreSQL connection pool.
func NewPostgresPool(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxDBConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info().Int32("max_conns", cfg.MaxDBConns).Msg("PostgreSQL connected")
	return pool, nil
}

// NewRedisClient creates and validates a Redis client connection.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().Str("addr", opt.Addr).Int("db", opt.DB).Msg("Redis connected")
	return rdb, nil
}
