package storage

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"pizza-storefront/internal/config"
	"pizza-storefront/internal/db"
	"pizza-storefront/internal/logs"
)

// Open builds the configured backend. The returned close func releases its connections.
func Open(ctx context.Context, cfg config.Storage, logger *slog.Logger) (Store, func(), error) {
	logger = logs.OrDiscard(logger)
	switch cfg.Driver {
	case "", DriverMemory:
		logger.Info("storage backend", "driver", DriverMemory)
		return NewMemory(), func() {}, nil
	case DriverPostgres:
		pool, err := db.Connect(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, errors.Wrap(err, "connect postgres")
		}
		logger.Info("storage backend", "driver", DriverPostgres)
		return NewPostgres(pool), pool.Close, nil
	case DriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, errors.Wrapf(err, "ping redis %s", cfg.RedisAddr)
		}
		logger.Info("storage backend", "driver", DriverRedis, "addr", cfg.RedisAddr)
		return NewRedis(client), func() { client.Close() }, nil
	default:
		return nil, nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
