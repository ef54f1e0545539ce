package infra

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/creatorhub/creatorhub/internal/config"
	"github.com/creatorhub/creatorhub/internal/storage"
)

// OpenStore connects the backend selected by cfg.Storage.Driver and applies
// the configured namespace. cache is reused by the redis driver when it
// points at the same server. The returned close func releases whatever
// OpenStore opened.
func OpenStore(ctx context.Context, cfg config.Config, cache *redis.Client, logger *slog.Logger) (storage.Store, func() error, error) {
	var (
		store   storage.Store
		closeFn = func() error { return nil }
	)

	switch cfg.Storage.Driver {
	case config.DriverMemory:
		store = storage.NewMemory()

	case config.DriverSQLite:
		db, err := OpenSQLite(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = storage.NewSQLite(db), db.Close

	case config.DriverRedis:
		url := cfg.StorageRedisURL()
		if cache != nil && url == cfg.RedisURL {
			store = storage.NewRedis(cache)
			break
		}
		client, err := NewRedisClient(ctx, url)
		if err != nil {
			return nil, nil, err
		}
		store, closeFn = storage.NewRedis(client), client.Close

	case config.DriverPostgres:
		pool, err := NewPostgresPool(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		store = storage.NewPostgres(pool)
		closeFn = func() error {
			pool.Close()
			return nil
		}

	case config.DriverMongo:
		coll, err := NewMongoCollection(ctx, cfg.Storage.DSN)
		if err != nil {
			return nil, nil, err
		}
		store = storage.NewMongo(coll)
		closeFn = func() error {
			return coll.Database().Client().Disconnect(context.Background())
		}

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	logger.Info("storage opened", slog.String("driver", cfg.Storage.Driver), slog.String("namespace", cfg.Storage.Namespace))
	return storage.Namespaced(store, cfg.Storage.Namespace), closeFn, nil
}
