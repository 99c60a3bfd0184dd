package router

import (
	"net/http"

	"epic-tech-ai/backend/internal/api"
	"epic-tech-ai/backend/internal/ws"
	"epic-tech-ai/backend/pkg/config"
	"epic-tech-ai/backend/pkg/di"
	"epic-tech-ai/backend/pkg/errors"
	"epic-tech-ai/backend/pkg/logger"
	"epic-tech-ai/backend/pkg/middleware"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine      *gin.Engine
	Container   *di.Container
	Logger      *logger.Logger
	Hub         *ws.Hub
	Config      *config.Config
	RateLimiter *middleware.RateLimiter
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)

	cfg := container.Config

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Logger first so every later middleware sees the request-scoped logger
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(middleware.Tracing(cfg.Observability.ServiceName))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(middleware.CORS(cfg.Security.AllowedOrigins))

	rateLimiter := middleware.NewRateLimiter(container.Logger, middleware.RateLimiterOptions{
		Limit:          rate.Limit(cfg.Security.RateLimit),
		Burst:          cfg.Security.RateLimitBurst,
		ExpiryDuration: middleware.DefaultRateLimiterOptions().ExpiryDuration,
		Skip:           isProbe,
	})
	engine.Use(rateLimiter.Middleware())

	return &Router{
		Engine:      engine,
		Container:   container,
		Logger:      container.Logger,
		Hub:         container.Hub,
		Config:      cfg,
		RateLimiter: rateLimiter,
	}
}

// isProbe exempts health and metrics scrapes and socket upgrades from rate limiting
func isProbe(c *gin.Context) bool {
	switch c.Request.URL.Path {
	case "/health", "/api/health", "/api/v1/health", "/metrics", "/ws":
		return true
	}
	return false
}

// SetupRoutes registers all application routes. metrics may be nil when
// metrics export is disabled.
func (r *Router) SetupRoutes(metrics http.Handler) {
	healthHandler := api.NewHandler(r.Container.Health, r.Hub, r.Config.Server.Env)
	replyController := api.NewReplyController(r.Container.ReplyService)

	// Register both health endpoint paths for compatibility
	healthHandler.RegisterHealthRoutes(r.Engine)
	healthHandler.RegisterHealthRoutes(r.Engine.Group("/api"))

	v1 := r.Engine.Group("/api/v1")
	healthHandler.RegisterHealthRoutes(v1)
	replyController.RegisterRoutesV1(v1)

	if metrics != nil {
		r.Engine.GET("/metrics", gin.WrapH(metrics))
	}

	r.Engine.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(r.Hub, c)
	})
}
