// Package bootstrap assembles the record source, result cache, store,
// engine and application service from a Config.
package bootstrap

import (
	"context"
	"fmt"

	"finance-analytics/internal/analysis"
	"finance-analytics/internal/app"
	"finance-analytics/internal/cache"
	"finance-analytics/internal/config"
	"finance-analytics/internal/db"
	"finance-analytics/internal/source"
	"finance-analytics/internal/store"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Runtime is a wired application. Close releases its connections.
type Runtime struct {
	Service  app.ApplicationService
	Registry *prometheus.Registry

	closers []func()
}

// Open wires every component described by cfg. Redis is optional: when it
// is configured but unreachable the memory cache is used instead.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Runtime, error) {
	rt := &Runtime{Registry: prometheus.NewRegistry()}

	src, err := rt.openSource(ctx, cfg, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	c := cache.New(rt.openBackend(ctx, cfg, logger), cfg.CacheTTL, logger)

	st := store.New(src, c, logger.Named("store"))
	engine := analysis.NewEngine(st, c, logger.Named("analysis"),
		analysis.WithMetrics(analysis.NewMetrics(rt.Registry)),
	)
	rt.Service = app.NewAppService(st, engine, c, logger)
	return rt, nil
}

func (rt *Runtime) openSource(ctx context.Context, cfg *config.Config, logger *zap.Logger) (source.Source, error) {
	switch cfg.Data.Source {
	case config.SourcePostgres:
		pool, err := db.NewPool(ctx, cfg.Database.URL, db.PoolOptions{
			MaxConns: cfg.Database.MaxConns,
			MinConns: cfg.Database.MinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		logger.Info("record source: postgres")
		return source.NewPostgres(pool), nil
	case config.SourceFiles:
		logger.Info("record source: files", zap.String("dir", cfg.Data.Dir))
		return source.NewFiles(cfg.Data.Dir), nil
	case config.SourceS3:
		client, err := NewS3Client(ctx, cfg.Data.Region)
		if err != nil {
			return nil, err
		}
		logger.Info("record source: s3", zap.String("bucket", cfg.Data.S3Bucket), zap.String("prefix", cfg.Data.S3Prefix))
		return source.NewS3(client, cfg.Data.S3Bucket, cfg.Data.S3Prefix), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Data.Source)
	}
}

func (rt *Runtime) openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) cache.Backend {
	if cfg.Redis.Addr == "" {
		logger.Info("result cache: memory")
		return cache.NewMemory()
	}
	r, err := cache.DialRedis(ctx, cache.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Warn("redis unavailable, using memory cache", zap.Error(err))
		return cache.NewMemory()
	}
	rt.closers = append(rt.closers, func() { _ = r.Close() })
	return r
}

// NewS3Client loads the default AWS credential chain for region.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// Close releases connections in reverse order of opening.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
