package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/pricelist/internal/catalog"
	"github.com/noah-isme/pricelist/internal/config"
	"github.com/noah-isme/pricelist/internal/obs"
	"github.com/noah-isme/pricelist/internal/queue"
	"github.com/noah-isme/pricelist/internal/resilience"
)

// Dependencies enumerates the shared services both binaries wire from config.
type Dependencies struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
	// Upstream is the configured catalog source without caching.
	Upstream catalog.Provider
	// Provider is Upstream behind the Redis snapshot when Redis is configured.
	Provider catalog.Provider
	// Warmer refreshes the Redis snapshot. Nil without Redis.
	Warmer     *catalog.CachedProvider
	TaskClient *asynq.Client
	Inspector  *asynq.Inspector
}

// Build connects the configured backing services. Redis and Postgres are
// only dialled when the configuration asks for them.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger, instrumentMetrics bool) (*Dependencies, error) {
	deps := &Dependencies{}
	if cfg.CatalogSource == config.SourcePostgres {
		pool, err := NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		deps.DB = pool
	}
	if cfg.RedisEnabled() {
		client, err := NewRedis(ctx, cfg.RedisURL, logger, instrumentMetrics)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.Redis = client
	}

	upstream, err := NewUpstream(cfg, deps.DB, logger)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Upstream = upstream
	deps.Provider = upstream

	if deps.Redis != nil {
		deps.Warmer = &catalog.CachedProvider{
			Cache:    catalog.NewCache(deps.Redis, cfg.CatalogCacheTTL),
			Upstream: upstream,
		}
		deps.Provider = deps.Warmer

		opt, err := queue.RedisOpt(cfg.RedisURL)
		if err != nil {
			deps.Close()
			return nil, err
		}
		deps.TaskClient = asynq.NewClient(opt)
		deps.Inspector = asynq.NewInspector(opt)
	}
	return deps, nil
}

// NewUpstream selects the catalog provider named by CATALOG_SOURCE.
func NewUpstream(cfg *config.Config, pool *pgxpool.Pool, logger zerolog.Logger) (catalog.Provider, error) {
	switch cfg.CatalogSource {
	case config.SourceStatic, "":
		return catalog.StaticProvider{}, nil
	case config.SourceHTTP:
		client := resilience.NewHTTPClient(resilience.ClientConfig{
			Target:       "catalog-http",
			Timeout:      cfg.CatalogFetchTimeout,
			MaxAttempts:  cfg.RetryMaxAttempts,
			BaseBackoff:  cfg.RetryBase,
			Jitter:       cfg.RetryJitterPercent,
			MinRequests:  cfg.CircuitMinRequests,
			FailureRatio: cfg.CircuitFailureRate,
			OpenFor:      cfg.CircuitOpenFor,
			Logger:       logger,
		})
		return catalog.HTTPProvider{URL: catalog.ProductsURL(cfg.CatalogURL), Client: client}, nil
	case config.SourceCSV:
		return catalog.CSVProvider{Path: cfg.CatalogCSVPath}, nil
	case config.SourcePostgres:
		if pool == nil {
			return nil, errors.New("postgres catalog source requires a database pool")
		}
		return catalog.PostgresProvider{DB: pool}, nil
	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.CatalogSource)
	}
}

// NewPool connects a traced pgx pool.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = obs.DefaultServiceName

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// NewRedis connects an instrumented Redis client.
func NewRedis(ctx context.Context, redisURL string, logger zerolog.Logger, instrumentMetrics bool) (*redis.Client, error) {
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(client); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if instrumentMetrics {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Close releases every connected service.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	if d.TaskClient != nil {
		_ = d.TaskClient.Close()
	}
	if d.Inspector != nil {
		_ = d.Inspector.Close()
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
}
