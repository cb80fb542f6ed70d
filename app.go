package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/ai"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/audit"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/cache"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/config"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/formatter"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/query"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/search"
	"github.com/vcscsvcscs/Healthcare-challenge-GDE-MIT/apps/health-query/internal/tools"
)

// app holds the wired query pipeline
type app struct {
	dispatcher *tools.Dispatcher
	checker    search.HealthChecker
	closers    []func()
	logger     *zap.Logger
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{logger: logger}

	engine, err := a.buildEngine(cfg)
	if err != nil {
		return nil, err
	}

	recorder, err := a.buildRecorder(ctx, cfg)
	if err != nil {
		a.close()
		return nil, err
	}

	opts := tools.Options{
		Timeout:      cfg.Search.Timeout,
		AuditTimeout: cfg.Database.AuditTimeout,
	}
	if cfg.AI.Enabled() {
		client, err := ai.NewOpenAIClient(cfg.AI.Endpoint, cfg.AI.APIKey, cfg.AI.Deployment, logger)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to initialize Azure OpenAI client: %w", err)
		}
		opts.Narrator = ai.NewNarrator(client, cfg.AI.Timeout, logger)
		logger.Info("narratives enabled", zap.String("deployment", cfg.AI.Deployment))
	}

	a.dispatcher, err = tools.NewDispatcher(
		engine,
		query.NewBuilder(cfg.Search.Index),
		formatter.New(cfg.Insights.Policy()),
		recorder,
		logger,
		opts,
	)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to build tool dispatcher: %w", err)
	}
	return a, nil
}

// buildEngine composes client, cache and fallback. Without an endpoint
// every response comes from sample data and is flagged degraded.
func (a *app) buildEngine(cfg *config.Config) (search.Engine, error) {
	if cfg.Search.Endpoint == "" {
		a.logger.Warn("no search endpoint configured, serving sample data")
		return search.FixtureEngine{}, nil
	}

	client, err := search.NewClient(search.ClientConfig{
		Endpoint: cfg.Search.Endpoint,
		Username: cfg.Search.Username,
		Password: cfg.Search.Password,
		Timeout:  cfg.Search.Timeout,
	}, nil, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize search client: %w", err)
	}
	a.checker = client

	var engine search.Engine = client
	if cfg.Cache.Enabled {
		provider := cache.NewMemoryProvider(cfg.Cache.MaxEntries, cfg.Cache.TTL)
		a.closers = append(a.closers, func() { provider.Close() })
		engine = search.NewCachingEngine(engine, provider, a.logger)
	}

	if cfg.Search.FallbackEnabled {
		return search.NewFallbackEngine(engine, search.FixtureEngine{}, a.logger), nil
	}
	return search.StrictEngine{Engine: engine}, nil
}

// buildRecorder writes audit entries to Postgres, or to the log without a database
func (a *app) buildRecorder(ctx context.Context, cfg *config.Config) (audit.Recorder, error) {
	if cfg.Database.URL == "" {
		a.logger.Warn("no audit database configured, audit entries are logged only")
		return audit.NewLogRecorder(a.logger), nil
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}
	if cfg.Database.MaxConns > 0 {
		poolCfg.MaxConns = cfg.Database.MaxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger := audit.NewLogger(pool, a.logger)
	if err := logger.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	a.logger.Info("Successfully connected to audit database")
	return logger, nil
}

// close drains pending audit writes before releasing resources
func (a *app) close() {
	if a.dispatcher != nil {
		a.dispatcher.Wait()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
