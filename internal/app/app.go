// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ranking-workers/internal/alerts"
	"ranking-workers/internal/common/aws"
	"ranking-workers/internal/common/cache"
	"ranking-workers/internal/common/config"
	"ranking-workers/internal/common/database"
	commonhttp "ranking-workers/internal/common/http"
	"ranking-workers/internal/common/logger"
	"ranking-workers/internal/common/observability"
	"ranking-workers/internal/common/validation"
	"ranking-workers/internal/fx"
	"ranking-workers/internal/ranking"
	"ranking-workers/internal/search"
	"ranking-workers/internal/service"
	"ranking-workers/internal/store"
	"ranking-workers/pkg/registry"
)

// App holds the connected backends and the services built on them.
type App struct {
	Config        *config.Config
	Logger        logger.Logger
	Observability *observability.Observability

	Postgres      *database.PostgresClient
	Redis         *database.RedisClient
	Elasticsearch *database.ElasticsearchClient

	Registry  *registry.ActivityRegistry
	Validator *validation.Validator
	Store     *store.Store
	Cache     *cache.Cache
	Service   *service.RankingService
	Indexer   *search.Indexer
	Notifier  *alerts.Notifier
}

// RetryWithBackoff runs operation until it succeeds, doubling the delay
// after each failure.
func RetryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

type BuildOptions struct {
	ServiceName string
	// Retries bounds connection attempts per backend; 1 disables retrying.
	Retries int
	// SkipSearch leaves Elasticsearch unconnected and Indexer nil.
	SkipSearch bool
	// SkipAlerts leaves the AWS clients unloaded and Notifier nil.
	SkipAlerts bool
}

// Build connects Postgres, Redis and (unless skipped) Elasticsearch and AWS,
// then assembles the ranking service on top of them.
func Build(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, opts BuildOptions) (*App, error) {
	if opts.Retries <= 0 {
		opts.Retries = 1
	}
	if opts.ServiceName == "" {
		opts.ServiceName = cfg.App.Name
	}

	log := logger.NewZapAdapter(zapLog)
	a := &App{Config: cfg, Logger: log}

	var obsOpts []observability.Option
	if cfg.Tracing.Enabled {
		obsOpts = append(obsOpts,
			observability.WithJaeger(cfg.Tracing.JaegerEndpoint),
			observability.WithSampleRatio(cfg.Tracing.SampleRatio),
		)
	}
	a.Observability = observability.New(opts.ServiceName, obsOpts...)

	reg, err := registry.LoadOrDefault(cfg.App.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("load activity registry: %w", err)
	}
	a.Registry = reg
	if a.Validator, err = validation.NewValidator(reg); err != nil {
		return nil, err
	}

	err = RetryWithBackoff(func() error {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		if err := database.Connect(ctx, pg); err != nil {
			return err
		}
		a.Postgres = pg
		return nil
	}, opts.Retries, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		return nil, err
	}

	err = RetryWithBackoff(func() error {
		rdb := database.NewRedis(cfg.Database.Redis)
		if err := database.Connect(ctx, rdb); err != nil {
			return err
		}
		a.Redis = rdb
		return nil
	}, opts.Retries, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		a.Close()
		return nil, err
	}

	codec, err := cache.CodecByName(cfg.Cache.Codec)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Cache = cache.New(a.Redis.Client, cfg.Cache.Prefix, codec, log)
	a.Store = store.New(a.Postgres.DB)

	rates := fx.NewProvider(
		commonhttp.NewClient(config.GetDuration(cfg.Currency.Timeout)),
		cfg.Currency.RatesURL,
		a.Cache,
		config.GetDuration(cfg.Currency.CacheTTL),
		log,
	)
	recorder := ranking.NewRecorder(a.Store, log,
		ranking.WithLocation(cfg.Ranking.Location()),
		ranking.WithConcurrency(cfg.Ranking.HistoryConcurrency),
	)

	a.Service = service.New(service.Dependencies{
		Snapshots:     a.Store,
		History:       a.Store,
		Cache:         a.Cache,
		Recorder:      recorder,
		Rates:         rates,
		Observability: a.Observability,
		Logger:        log,
	}, service.Options{
		DatasetTTL:    config.GetDuration(cfg.Cache.DatasetTTL),
		HistoryTTL:    config.GetDuration(cfg.Cache.HistoryTTL),
		RecordHistory: cfg.Ranking.RecordHistory,
		HistoryDays:   cfg.Ranking.HistoryDays,
	})

	if !opts.SkipSearch && cfg.Database.Elasticsearch.GetURL() != "" {
		err = RetryWithBackoff(func() error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := database.Connect(ctx, es); err != nil {
				return err
			}
			a.Elasticsearch = es
			return nil
		}, opts.Retries, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Indexer = search.NewIndexer(a.Elasticsearch.Client, cfg.Search.IndexPrefix, log)
	}

	if !opts.SkipAlerts && (cfg.Alerts.SNS.Enabled || cfg.Alerts.SES.Enabled) {
		notifier, err := buildNotifier(ctx, cfg, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.Notifier = notifier
	}

	return a, nil
}

func buildNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) (*alerts.Notifier, error) {
	var (
		snsClient aws.SNSAPI
		sesClient aws.SESAPI
	)
	if cfg.Alerts.SNS.Enabled {
		c, err := aws.NewSNSClient(ctx, cfg.Alerts.Region)
		if err != nil {
			return nil, err
		}
		snsClient = c
	}
	if cfg.Alerts.SES.Enabled {
		c, err := aws.NewSESClient(ctx, cfg.Alerts.Region)
		if err != nil {
			return nil, err
		}
		sesClient = c
	}
	return alerts.NewNotifier(snsClient, sesClient, alerts.Config{
		Threshold:  cfg.Alerts.Threshold,
		TopicARN:   cfg.Alerts.SNS.TopicARN,
		FromEmail:  cfg.Alerts.SES.FromEmail,
		Recipients: cfg.Alerts.SES.To,
		SNSEnabled: cfg.Alerts.SNS.Enabled,
		SESEnabled: cfg.Alerts.SES.Enabled,
	}, log), nil
}

// Ready pings the backends the workers depend on.
func (a *App) Ready(ctx context.Context) error {
	return database.PingAll(ctx, a.backends()...)
}

// backends lists the opened connections. Typed nils are left out so that
// PingAll only sees live clients.
func (a *App) backends() []database.Backend {
	var out []database.Backend
	if a.Postgres != nil {
		out = append(out, a.Postgres)
	}
	if a.Redis != nil {
		out = append(out, a.Redis)
	}
	if a.Elasticsearch != nil {
		out = append(out, a.Elasticsearch)
	}
	return out
}

// Close releases every connection that was opened.
func (a *App) Close() {
	for _, b := range a.backends() {
		_ = b.Close()
	}
	if a.Observability != nil {
		a.Observability.Shutdown()
	}
}
