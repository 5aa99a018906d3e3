package main

import (
	"context"
	"database/sql"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"innkeeper/cmd/server/config"
	"innkeeper/internal/booking"
	bookingdb "innkeeper/internal/db/booking"
)

var openBookingDB = func(driver, dsn string) (*sql.DB, error) {
	return sql.Open(driver, dsn)
}

// buildBookingStore assembles the booking store from the environment:
// Postgres when DATABASE_URL is set, otherwise an in-memory store (with WAL
// recovery when BOOKING_WAL_PATH is set). When REDIS_URL is set a Redis
// status mirror is layered on top for live-status reads.
func buildBookingStore(ctx context.Context, logger *zap.Logger) (booking.Store, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	primary, primaryCleanup, err := buildPrimaryStore(ctx, logger)
	if err != nil {
		return nil, nil, err
	}
	if primaryCleanup != nil {
		cleanups = append(cleanups, primaryCleanup)
	}

	if strings.TrimSpace(os.Getenv("REDIS_URL")) == "" {
		return primary, cleanup, nil
	}

	mirror, mirrorCleanup, err := buildRedisMirror(ctx)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cleanups = append(cleanups, mirrorCleanup)

	return booking.NewMirroredStore(primary, logger, mirror), cleanup, nil
}

func buildPrimaryStore(ctx context.Context, logger *zap.Logger) (booking.Store, func(), error) {
	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		walPath := strings.TrimSpace(os.Getenv("BOOKING_WAL_PATH"))
		if walPath == "" {
			logger.Info("no DATABASE_URL set, using in-memory booking store")
			return booking.NewMemoryStore(), nil, nil
		}

		wal, err := booking.NewFileWAL(walPath)
		if err != nil {
			return nil, nil, err
		}
		store, err := booking.NewMemoryStoreWithRecovery(wal)
		if err != nil {
			wal.Close()
			return nil, nil, err
		}
		logger.Info("using in-memory booking store with WAL recovery",
			zap.String("path", walPath))
		return store, func() {
			if err := wal.Close(); err != nil {
				logger.Warn("close wal", zap.Error(err))
			}
		}, nil
	}

	db, err := openBookingDB("pgx", databaseURL)
	if err != nil {
		return nil, nil, err
	}
	store, err := bookingdb.NewStoreWithSchema(ctx, db)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() {
		if err := db.Close(); err != nil {
			logger.Warn("close bookings db", zap.Error(err))
		}
	}, nil
}

func buildRedisMirror(ctx context.Context) (*booking.RedisStatusStore, func(), error) {
	cfg, err := config.LoadRedis()
	if err != nil {
		return nil, nil, err
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DialTimeout != nil {
		opts.DialTimeout = *cfg.DialTimeout
	}
	if cfg.ReadTimeout != nil {
		opts.ReadTimeout = *cfg.ReadTimeout
	}
	if cfg.WriteTimeout != nil {
		opts.WriteTimeout = *cfg.WriteTimeout
	}
	if cfg.PoolSize != nil {
		opts.PoolSize = *cfg.PoolSize
	}
	if cfg.MinIdleConns != nil {
		opts.MinIdleConns = *cfg.MinIdleConns
	}
	if cfg.MaxRetries != nil {
		opts.MaxRetries = *cfg.MaxRetries
	}
	if cfg.TLSConfig != nil {
		opts.TLSConfig = cfg.TLSConfig
	}

	client := redis.NewClient(opts)
	if cfg.EnableOTel {
		if err := redisotel.InstrumentTracing(client); err != nil {
			client.Close()
			return nil, nil, err
		}
		if err := redisotel.InstrumentMetrics(client); err != nil {
			client.Close()
			return nil, nil, err
		}
	}

	pingCtx := ctx
	if pingCtx == nil {
		pingCtx = context.Background()
	}
	if cfg.HealthcheckTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(pingCtx, cfg.HealthcheckTimeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, err
	}

	mirror := booking.NewRedisStatusStore(redisClientAdapter{client: client}, cfg.Stream, cfg.StatusTTL, cfg.StreamMaxLen)
	return mirror, func() { client.Close() }, nil
}

type redisClientAdapter struct {
	client *redis.Client
}

func (a redisClientAdapter) Pipeline() booking.RedisPipeliner {
	return redisPipelineAdapter{pipe: a.client.Pipeline()}
}

type redisPipelineAdapter struct {
	pipe redis.Pipeliner
}

func (p redisPipelineAdapter) HSet(ctx context.Context, key string, values ...any) *redis.IntCmd {
	return p.pipe.HSet(ctx, key, values...)
}

func (p redisPipelineAdapter) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	return p.pipe.Expire(ctx, key, expiration)
}

func (p redisPipelineAdapter) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	return p.pipe.XAdd(ctx, a)
}

func (p redisPipelineAdapter) Exec(ctx context.Context) ([]redis.Cmder, error) {
	return p.pipe.Exec(ctx)
}
