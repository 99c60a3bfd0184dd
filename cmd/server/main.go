package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"epic-tech-ai/backend/pkg/config"
	"epic-tech-ai/backend/pkg/di"
	"epic-tech-ai/backend/pkg/health"
	"epic-tech-ai/backend/pkg/logger"
	"epic-tech-ai/backend/pkg/router"
	"epic-tech-ai/backend/pkg/secrets"
	"epic-tech-ai/backend/shared/observability"
)

func main() {
	// Loads .env before reading the environment
	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"

	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting application",
		"version", os.Getenv("APP_VERSION"),
		"env", cfg.Server.Env,
		"model", cfg.LLM.Model,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Resolve the completion key from Vault when enabled, falling back to LLM_API_KEY
	if err := secrets.Init(secrets.VaultConfigFromConfig(cfg), log); err != nil {
		log.LogError(err, "Failed to initialize secrets manager, using environment only")
	}
	cfg.LLM.APIKey = secrets.GetSecretWithDefault(ctx, secrets.KeyLLMAPIKey, cfg.LLM.APIKey)

	metrics, err := observability.SetupMetrics(cfg.Observability.ServiceName)
	if err != nil {
		log.LogError(err, "Failed to initialize metrics")
		os.Exit(1)
	}

	shutdownTracing := func(context.Context) error { return nil }
	if cfg.Observability.TracingEnabled {
		shutdownTracing, err = observability.SetupTracing(cfg.Observability.ServiceName, os.Stdout)
		if err != nil {
			log.LogError(err, "Failed to initialize tracing")
			os.Exit(1)
		}
	}

	container, err := di.New(cfg, log)
	if err != nil {
		log.LogError(err, "Failed to initialize dependency container")
		os.Exit(1)
	}
	container.Health.Start(ctx)

	r := router.New(container)
	if cfg.Features.OpenAPISchemaPath != "" {
		r.AddOpenAPIValidation(cfg.Features.OpenAPISchemaPath)
	}
	r.SetupRoutes(metrics.Handler())
	go r.RateLimiter.Cleanup(ctx, cfg.Security.RateLimiterCleanup)

	var grpcHealth *health.GRPCServer
	if cfg.Observability.GRPCHealthPort != "" {
		grpcHealth = health.NewGRPCServer(container.Health, cfg.Observability.ServiceName, log)
		if err := grpcHealth.ListenAndServe(net.JoinHostPort("", cfg.Observability.GRPCHealthPort)); err != nil {
			log.LogError(err, "Failed to start gRPC health server", "port", cfg.Observability.GRPCHealthPort)
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r.Engine,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Server forced to shutdown")
	}
	if err := container.Close(); err != nil {
		log.LogError(err, "Failed to release dependencies")
	}
	if grpcHealth != nil {
		grpcHealth.Stop(shutdownCtx)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.LogError(err, "Failed to flush traces")
	}
	if err := metrics.Shutdown(shutdownCtx); err != nil {
		log.LogError(err, "Failed to stop metrics")
	}

	log.Info("Server exited gracefully")
}
