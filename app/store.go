package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jimiolaniyan/identity/auth"
)

const connectTimeout = 10 * time.Second

// OpenRepository connects the account store selected by cfg. The returned
// close func releases its connections.
func OpenRepository(ctx context.Context, cfg *Config) (auth.Repository, func(), error) {
	switch cfg.StoreDriver {
	case StoreMongo:
		return openMongo(ctx, cfg)
	case StorePostgres:
		return openPostgres(ctx, cfg)
	default:
		return auth.NewAccountRepository(), func() {}, nil
	}
}

func openMongo(ctx context.Context, cfg *Config) (auth.Repository, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("app/store: mongo connect: %w", err)
	}
	closeFn := func() { _ = client.Disconnect(context.Background()) }

	if err := client.Ping(ctx, nil); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("app/store: mongo ping: %w", err)
	}

	repo, err := auth.NewMongoAccountRepository(ctx, client.Database(cfg.MongoDatabase).Collection("accounts"))
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("app/store: %w", err)
	}
	return repo, closeFn, nil
}

func openPostgres(ctx context.Context, cfg *Config) (auth.Repository, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PGDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("app/store: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("app/store: ping: %w", err)
	}
	if err := auth.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("app/store: %w", err)
	}
	return auth.NewPostgresAccountRepository(pool), pool.Close, nil
}

// OpenLocker returns the username locker selected by cfg.
func OpenLocker(ctx context.Context, cfg *Config) (auth.Locker, func(), error) {
	if cfg.LockDriver != LockRedis {
		return auth.NewLocalLocker(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("app/store: redis ping: %w", err)
	}
	return auth.NewRedisLocker(client, cfg.LockTTL), func() { _ = client.Close() }, nil
}
