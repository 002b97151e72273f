package main

import (
	"context"
	"errors"
	"os"

	"github.com/redis/go-redis/v9"

	"github.com/gilsentrycs/monitor-flights/config"
	"github.com/gilsentrycs/monitor-flights/monitor"
	"github.com/gilsentrycs/monitor-flights/pkg/cache"
	"github.com/gilsentrycs/monitor-flights/pkg/logger"
	"github.com/gilsentrycs/monitor-flights/pkg/metrics"
	"github.com/gilsentrycs/monitor-flights/pkg/notify"
	"github.com/gilsentrycs/monitor-flights/pkg/prompt"
	"github.com/gilsentrycs/monitor-flights/serpapi"
	"github.com/gilsentrycs/monitor-flights/store"
)

// app holds the collaborators shared by the commands
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	client  *serpapi.Client
	redis   *redis.Client
	history *store.Store
	mailer  *notify.Mailer
	ntfy    *notify.NTFYClient
	metrics *metrics.Recorder
}

// loadConfig reads the environment, overlays the YAML file if one is given
// (or named by CONFIG_FILE), validates it and initializes the default logger.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}

	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	logger.Init(logger.Config{
		Level:  cfg.LoggingConfig.Level,
		Format: cfg.LoggingConfig.Format,
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp connects everything a scan needs. Redis is optional: when it cannot be
// reached the scan runs uncached. The history store is required once enabled.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	if err := cfg.RequireCredentials(); err != nil {
		return nil, err
	}

	a := &app{
		cfg: cfg,
		log: logger.Default(),
		client: serpapi.NewClient(serpapi.Options{
			APIKey:     cfg.SerpAPIConfig.APIKey,
			BaseURL:    cfg.SerpAPIConfig.BaseURL,
			Timeout:    cfg.SerpAPIConfig.Timeout,
			MaxRetries: cfg.SerpAPIConfig.MaxRetries,
		}),
		mailer:  notify.NewMailer(cfg.EmailConfig),
		ntfy:    notify.NewNTFYClient(cfg.NTFYConfig),
		metrics: metrics.New(),
	}

	if cfg.CacheConfig.Enabled {
		rc, err := cache.NewRedisClient(ctx, cache.RedisOptions{
			Host:     cfg.RedisConfig.Host,
			Port:     cfg.RedisConfig.Port,
			Password: cfg.RedisConfig.Password,
			DB:       cfg.RedisConfig.DB,
		})
		if err != nil {
			a.log.Warn("response cache disabled", "error", err)
		} else {
			a.redis = rc
		}
	}

	if cfg.HistoryConfig.Enabled {
		st, err := store.Open(ctx, cfg.HistoryConfig)
		if err != nil {
			a.close()
			return nil, err
		}
		a.history = st
	}

	return a, nil
}

func (a *app) searcher() serpapi.Searcher {
	if a.redis == nil {
		return a.client
	}
	c := cache.NewRedisCache(a.redis, a.cfg.CacheConfig.Prefix)
	return serpapi.NewCachedSearcher(a.client, c, a.cfg.CacheConfig.TTL, a.log)
}

// service builds a scan service. Interface fields are only set for enabled
// collaborators so that a nil pointer never hides behind a non-nil interface.
func (a *app) service(confirm prompt.Confirmer) *monitor.Service {
	deps := monitor.Deps{
		Searcher: a.searcher(),
		Confirm:  confirm,
		Out:      os.Stdout,
		Mailer:   a.mailer,
		Metrics:  a.metrics,
		Logger:   a.log,
	}
	if a.ntfy.IsEnabled() {
		deps.Alerter = a.ntfy
	}
	if a.history != nil {
		deps.History = a.history
	}
	return monitor.NewService(a.cfg, deps)
}

func (a *app) close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.history != nil {
		errs = append(errs, a.history.Close())
	}
	return errors.Join(errs...)
}
