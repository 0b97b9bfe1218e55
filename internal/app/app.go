// Package app assembles the word frequency service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RCarmona53/amazon-word-cloud/models"
	"github.com/RCarmona53/amazon-word-cloud/pkg/analytics"
	"github.com/RCarmona53/amazon-word-cloud/pkg/caching"
	"github.com/RCarmona53/amazon-word-cloud/pkg/db"
	"github.com/RCarmona53/amazon-word-cloud/pkg/extractor"
	"github.com/RCarmona53/amazon-word-cloud/pkg/fetcher"
	"github.com/RCarmona53/amazon-word-cloud/pkg/language"
	"github.com/RCarmona53/amazon-word-cloud/pkg/pipeline"
	"github.com/RCarmona53/amazon-word-cloud/pkg/storage"
	"github.com/RCarmona53/amazon-word-cloud/pkg/stopwords"
)

// App owns the service and every resource opened to build it.
type App struct {
	Config  *models.Config
	Service *pipeline.Service
	History *db.DB
	Logger  *slog.Logger

	closers []func() error
}

// New builds the service described by cfg. Close must be called when done.
func New(ctx context.Context, cfg *models.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{Config: cfg, Logger: logger}

	set, err := LoadStopwords(cfg.Stopwords)
	if err != nil {
		return nil, err
	}

	if cfg.History.Path != "" {
		database, err := db.Open(cfg.History.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		a.History = database
		a.closers = append(a.closers, database.Close)
	}

	store, err := a.cacheStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	policy, err := caching.ParsePolicy(cfg.Cache.Policy)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	f := fetcher.NewFetcher(fetcher.Options{
		Timeout:      cfg.Fetch.Timeout,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		UserAgent:    cfg.Fetch.UserAgent,
		Logger:       logger,
	})

	opts := pipeline.Options{
		Describer: extractor.New(f, extractor.Options{
			Selector:            cfg.Extract.Selector,
			ReadabilityFallback: cfg.Extract.ReadabilityFallback,
			Logger:              logger,
		}),
		Analytics: analytics.New(set),
		Cache: caching.NewManager(caching.Options{
			Policy:    policy,
			Store:     store,
			TTL:       cfg.Cache.TTL,
			MarkerTTL: cfg.Cache.MarkerTTL,
			OpTimeout: cfg.Cache.OpTimeout,
			KeyPrefix: cfg.Cache.KeyPrefix,
			Logger:    logger,
		}),
		Limit:  cfg.Rank.Limit,
		Logger: logger,
	}
	if a.History != nil {
		opts.Recorder = a.History
	}
	if cfg.Sink.Path != "" {
		opts.Sink = storage.NewSink(cfg.Sink.Path)
	}
	if cfg.Language.Detect {
		opts.Detector = language.NewDetector()
	}

	a.Service = pipeline.New(opts)

	logger.Info("Service ready",
		"policy", string(policy),
		"backend", cfg.Cache.Backend,
		"stopwords", cfg.Stopwords.Source,
		"history", cfg.History.Path,
		"sink", cfg.Sink.Path,
	)
	return a, nil
}

func (a *App) cacheStore(ctx context.Context) (caching.Store, error) {
	cfg := a.Config.Cache
	if cfg.Policy == string(caching.PolicyDisabled) {
		return nil, nil
	}

	switch cfg.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		a.closers = append(a.closers, client.Close)

		store := caching.NewRedisStore(client)
		pingCtx, cancel := context.WithTimeout(ctx, cfg.OpTimeout)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			// requests still run, uncached, until redis comes back
			a.Logger.Warn("Cache store unreachable at startup", "addr", cfg.Redis.Addr, "error", err)
		}
		return store, nil

	case "sqlite":
		if a.History == nil {
			return nil, errors.New("cache.backend sqlite requires history.path")
		}
		store := db.NewCacheStore(a.History)
		if n, err := store.PurgeExpired(ctx); err != nil {
			a.Logger.Warn("Failed to purge expired cache entries", "error", err)
		} else if n > 0 {
			a.Logger.Debug("Purged expired cache entries", "count", n)
		}
		return store, nil

	default:
		maxTTL := cfg.TTL
		if cfg.MarkerTTL > maxTTL {
			maxTTL = cfg.MarkerTTL
		}
		return caching.NewMemoryStore(cfg.MaxItems, maxTTL+time.Minute), nil
	}
}

// LoadStopwords builds the process-wide stopword set once at startup.
func LoadStopwords(cfg models.StopwordsConfig) (*stopwords.Set, error) {
	var set *stopwords.Set
	switch cfg.Source {
	case "", "snowball":
		if cfg.Language != "" && cfg.Language != "en" {
			return nil, fmt.Errorf("snowball stopwords are only bundled for en, not %q", cfg.Language)
		}
		set = stopwords.English()
	case "file":
		loaded, err := stopwords.LoadFile(cfg.File)
		if err != nil {
			return nil, err
		}
		set = loaded
	case "none":
		set = stopwords.New()
	default:
		return nil, fmt.Errorf("unknown stopwords source %q", cfg.Source)
	}

	if cfg.Language != "" {
		set = set.WithLanguage(cfg.Language)
	}
	if len(cfg.Extra) > 0 {
		set = set.With(cfg.Extra...)
	}
	return set, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
