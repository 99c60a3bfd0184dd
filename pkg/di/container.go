package di

import (
	"context"
	"errors"
	"fmt"

	"epic-tech-ai/backend/internal/llm"
	"epic-tech-ai/backend/internal/reply"
	"epic-tech-ai/backend/internal/ws"
	"epic-tech-ai/backend/pkg/cache"
	"epic-tech-ai/backend/pkg/config"
	"epic-tech-ai/backend/pkg/health"
	"epic-tech-ai/backend/pkg/logger"
	"epic-tech-ai/backend/pkg/resilience"
)

// Container holds all the dependencies for the application
type Container struct {
	Config       *config.Config
	Logger       *logger.Logger
	Breaker      *resilience.CircuitBreaker
	LLMClient    *llm.Client
	Cache        cache.Store
	ReplyService *reply.Service
	Hub          *ws.Hub
	Health       *health.Checker

	closers []func() error
}

// New creates a new dependency injection container
func New(cfg *config.Config, log *logger.Logger) (*Container, error) {
	if cfg == nil {
		cfg = config.Get()
	}
	if log == nil {
		log = logger.GetGlobal()
	}

	c := &Container{Config: cfg, Logger: log}

	breakerCfg := resilience.DefaultCircuitBreakerConfig("llm")
	breakerCfg.FailureThreshold = cfg.LLM.FailureThreshold
	breakerCfg.RetryTimeout = cfg.LLM.RetryTimeout
	c.Breaker = resilience.NewCircuitBreaker(breakerCfg, log)

	c.LLMClient = llm.NewClient(LLMConfig(cfg), c.Breaker, log)
	if !c.LLMClient.Configured() {
		log.Warn("LLM_API_KEY not set, replies will come from the fallback rules")
	}

	store, err := c.newCache()
	if err != nil {
		return nil, fmt.Errorf("failed to create completion cache: %w", err)
	}
	c.Cache = store

	opts := reply.Options{
		Completer: c.LLMClient,
		Drawer:    reply.NewDrawer(cfg.Reply.Seed),
		Logger:    log,
		DelayMin:  cfg.Reply.DelayMin,
		DelayMax:  cfg.Reply.DelayMax,
	}
	if store != nil {
		opts.Cache = store
	}
	c.ReplyService = reply.NewService(opts)

	c.Hub = ws.NewHub(c.ReplyService, ws.SettingsFromConfig(cfg), log)

	c.Health = health.NewChecker(log, cfg.Observability.HealthPeriod)
	c.Health.RegisterCompletionCheck(c.LLMClient.Configured, func() string {
		return string(c.LLMClient.State())
	})
	c.Health.RegisterCheck("websocket", true, func(context.Context) (health.Status, string, error) {
		return health.StatusUp, fmt.Sprintf("%d active connections", c.Hub.Count()), nil
	})
	if pinger, ok := store.(interface{ Ping(context.Context) error }); ok {
		c.Health.RegisterCacheCheck(pinger.Ping)
	}
	c.Health.RunChecks(context.Background())

	return c, nil
}

// LLMConfig maps the application config onto the completion client config
func LLMConfig(cfg *config.Config) llm.Config {
	return llm.Config{
		APIKey:           cfg.LLM.APIKey,
		Endpoint:         cfg.LLM.Endpoint,
		Model:            cfg.LLM.Model,
		Timeout:          cfg.LLM.Timeout,
		Temperature:      cfg.LLM.Temperature,
		MaxTokens:        cfg.LLM.MaxTokens,
		PresencePenalty:  cfg.LLM.PresencePenalty,
		FrequencyPenalty: cfg.LLM.FrequencyPenalty,
	}
}

// newCache returns nil when caching is disabled. A configured REDIS_URL
// selects the shared store; otherwise completions are cached in memory.
func (c *Container) newCache() (cache.Store, error) {
	cfg := c.Config.Cache
	if !cfg.Enabled {
		return nil, nil
	}

	if cfg.RedisURL != "" {
		store, err := cache.NewRedisStore(cfg.RedisURL, cfg.RedisPrefix, cfg.TTL)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, store.Close)
		c.Logger.Info("Completion cache enabled", "backend", "redis", "ttl", cfg.TTL.String())
		return store, nil
	}

	store := cache.NewMemoryStore(cfg.TTL, cfg.MaxSize, cfg.PurgeWindow)
	c.closers = append(c.closers, store.Close)
	c.Logger.Info("Completion cache enabled", "backend", "memory", "ttl", cfg.TTL.String())
	return store, nil
}

// Close disconnects every websocket client and releases the cache
func (c *Container) Close() error {
	c.Hub.Shutdown()

	var errs []error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
