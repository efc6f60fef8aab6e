package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"github.com/smartwaste/bin-registry/internal/config"
	"github.com/smartwaste/bin-registry/shared/go-repositories"
	"github.com/smartwaste/bin-registry/shared/go-utils"
)

const (
	maxRetries     = 5
	connectTimeout = 5 * time.Second
	initialBackoff = 500 * time.Millisecond
)

type App struct {
	Config *config.Config
	Bins   repositories.BinRepository
	// Redis is nil when no REDIS_ADDR is configured or it was unreachable.
	Redis *goredis.Client

	pool   *pgxpool.Pool
	sqlite *repositories.SQLiteBinRepository
}

func NewApp(cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	switch cfg.StoreDriver {
	case config.StorePostgres:
		pool, err := connectWithRetry(cfg.DBUrl)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		if err := repositories.EnsureBinsSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("apply bins schema: %w", err)
		}
		app.pool = pool
		app.Bins = repositories.NewBinRepository(pool)
	case config.StoreSQLite:
		repo, err := repositories.NewSQLiteBinRepository(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		utils.Logger.Infof("%s using SQLite store at %s", cfg.AppName, cfg.SQLitePath)
		app.sqlite = repo
		app.Bins = repo
	default:
		utils.Logger.Warnf("%s using in-memory store; data is lost on restart", cfg.AppName)
		app.Bins = repositories.NewMemoryBinRepository()
	}

	if cfg.RedisAddr != "" {
		rdb, err := newRedis(context.Background(), cfg)
		if err != nil {
			utils.Logger.WithError(err).Warn("Redis unavailable, sticker cache disabled")
		} else {
			app.Redis = rdb
		}
	}
	return app, nil
}

// Ping checks the backing store.
func (a *App) Ping(ctx context.Context) error {
	switch {
	case a.pool != nil:
		return a.pool.Ping(ctx)
	case a.sqlite != nil:
		return a.sqlite.Ping(ctx)
	default:
		return ctx.Err()
	}
}

func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
		utils.Logger.Info("bins-service DB connection closed.")
	}
	if a.sqlite != nil {
		if err := a.sqlite.Close(); err != nil {
			utils.Logger.WithError(err).Warn("Failed to close SQLite store")
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			utils.Logger.WithError(err).Warn("Failed to close Redis client")
		}
	}
}

func connectWithRetry(databaseURL string) (*pgxpool.Pool, error) {
	var (
		dbPool  *pgxpool.Pool
		err     error
		backoff = initialBackoff
	)
	for i := 1; i <= maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		dbPool, err = newDBPool(ctx, databaseURL)
		cancel()
		if err == nil {
			utils.Logger.Infof("bins-service connected to DB on attempt %d", i)
			return dbPool, nil
		}

		utils.Logger.WithError(err).Warnf(
			"Failed DB connect on attempt %d/%d. Retrying in %v...",
			i, maxRetries, backoff,
		)
		if i == maxRetries {
			break
		}
		time.Sleep(backoff)
		backoff *= 2
	}
	return nil, fmt.Errorf("unable to connect after %d attempts: %w", maxRetries, err)
}

func newDBPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 2 * time.Minute
	cfg.HealthCheckPeriod = 30 * time.Second
	return pgxpool.ConnectConfig(ctx, cfg)
}

func newRedis(ctx context.Context, cfg *config.Config) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		if cerr := rdb.Close(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	utils.Logger.Info("Connected to Redis successfully")
	return rdb, nil
}
