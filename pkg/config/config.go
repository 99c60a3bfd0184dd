package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// DefaultLLMEndpoint is the OpenAI-compatible chat completions URL used when LLM_ENDPOINT is unset
const DefaultLLMEndpoint = "https://api.openai.com/v1/chat/completions"

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port            string
		Env             string
		ShutdownTimeout time.Duration
	}

	// External completion (OpenAI-compatible) configuration
	LLM struct {
		APIKey           string
		Endpoint         string
		Model            string
		Timeout          time.Duration
		Temperature      float32
		MaxTokens        int
		PresencePenalty  float32
		FrequencyPenalty float32
		FailureThreshold uint
		RetryTimeout     time.Duration
	}

	// Reply emission configuration
	Reply struct {
		DelayMin time.Duration
		DelayMax time.Duration
		Seed     uint64
	}

	// WebSocket configuration
	WebSocket struct {
		PongWait       time.Duration
		PingPeriod     time.Duration
		WriteWait      time.Duration
		MaxMessageSize int64
		QueueSize      int
		MessageRate    float64
		MessageBurst   int
	}

	// Security configuration
	Security struct {
		RateLimit          float64
		RateLimitBurst     int
		RateLimiterCleanup time.Duration
		AllowedOrigins     []string
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}

	// Completion cache settings
	Cache struct {
		Enabled     bool
		TTL         time.Duration
		MaxSize     int
		PurgeWindow time.Duration
		RedisURL    string
		RedisPrefix string
	}

	// Observability settings
	Observability struct {
		ServiceName    string
		TracingEnabled bool
		GRPCHealthPort string
		HealthPeriod   time.Duration
	}

	// Vault settings
	Vault struct {
		Enabled     bool
		Address     string
		Token       string
		Namespace   string
		SecretsPath string
	}

	// Feature flags
	Features struct {
		EnableEffectCues  bool
		GlitchDuration    time.Duration
		OpenAPISchemaPath string
	}
}

var (
	instance *Config
	once     sync.Once
)

// New creates a new Config instance with values from environment variables
// Uses singleton pattern to ensure only one instance exists
func New() *Config {
	once.Do(func() {
		// Load .env file if exists
		godotenv.Load()

		instance = Load()
	})

	return instance
}

// Get returns the singleton Config instance
func Get() *Config {
	if instance == nil {
		return New()
	}
	return instance
}

// Load reads a fresh Config from the current environment without touching the singleton
func Load() *Config {
	cfg := &Config{}

	// Server config
	cfg.Server.Port = getEnvString("PORT", "3000")
	cfg.Server.Env = getEnvString("APP_ENV", "development")
	cfg.Server.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)

	// LLM config
	cfg.LLM.APIKey = getEnvString("LLM_API_KEY", "")
	cfg.LLM.Endpoint = getEnvString("LLM_ENDPOINT", DefaultLLMEndpoint)
	cfg.LLM.Model = getEnvString("LLM_MODEL", "gpt-4o-mini")
	cfg.LLM.Timeout = getEnvDuration("LLM_TIMEOUT", 15*time.Second)
	cfg.LLM.Temperature = getEnvFloat32("LLM_TEMPERATURE", 0.9)
	cfg.LLM.MaxTokens = getEnvInt("LLM_MAX_TOKENS", 180)
	cfg.LLM.PresencePenalty = getEnvFloat32("LLM_PRESENCE_PENALTY", 0.6)
	cfg.LLM.FrequencyPenalty = getEnvFloat32("LLM_FREQUENCY_PENALTY", 0.4)
	cfg.LLM.FailureThreshold = getEnvUint("LLM_FAILURE_THRESHOLD", 5)
	cfg.LLM.RetryTimeout = getEnvDuration("LLM_RETRY_TIMEOUT", 30*time.Second)

	// Reply config
	cfg.Reply.DelayMin = getEnvDuration("REPLY_DELAY_MIN", 600*time.Millisecond)
	cfg.Reply.DelayMax = getEnvDuration("REPLY_DELAY_MAX", 1500*time.Millisecond)
	cfg.Reply.Seed = getEnvUint64("REPLY_SEED", 0)

	// WebSocket config
	cfg.WebSocket.PongWait = getEnvDuration("WS_PONG_WAIT", 60*time.Second)
	cfg.WebSocket.PingPeriod = (cfg.WebSocket.PongWait * 9) / 10
	cfg.WebSocket.WriteWait = getEnvDuration("WS_WRITE_WAIT", 10*time.Second)
	cfg.WebSocket.MaxMessageSize = getEnvInt64("WS_MAX_MESSAGE_SIZE", 4096)
	cfg.WebSocket.QueueSize = getEnvInt("WS_QUEUE_SIZE", 16)
	cfg.WebSocket.MessageRate = getEnvFloat64("WS_MESSAGE_RATE", 0)
	cfg.WebSocket.MessageBurst = getEnvInt("WS_MESSAGE_BURST", 5)

	// Security config
	cfg.Security.RateLimit = getEnvFloat64("RATE_LIMIT", 5)
	cfg.Security.RateLimitBurst = getEnvInt("RATE_LIMIT_BURST", 10)
	cfg.Security.RateLimiterCleanup = getEnvDuration("RATE_LIMIT_CLEANUP", time.Minute)
	cfg.Security.AllowedOrigins = getEnvStringSlice("ALLOWED_ORIGINS", []string{"*"})

	// Logging config
	cfg.Logging.Level = getEnvString("LOG_LEVEL", "info")
	cfg.Logging.Format = getEnvString("LOG_FORMAT", "json")

	// Cache settings
	cfg.Cache.Enabled = getEnvBool("CACHE_ENABLED", false)
	cfg.Cache.TTL = getEnvDuration("CACHE_TTL", 5*time.Minute)
	cfg.Cache.MaxSize = getEnvInt("CACHE_MAX_SIZE", 1000)
	cfg.Cache.PurgeWindow = getEnvDuration("CACHE_PURGE_WINDOW", 10*time.Minute)
	cfg.Cache.RedisURL = getEnvString("REDIS_URL", "")
	cfg.Cache.RedisPrefix = getEnvString("REDIS_PREFIX", "epic-tech-ai:reply:")

	// Observability
	cfg.Observability.ServiceName = getEnvString("SERVICE_NAME", "epic-tech-ai")
	cfg.Observability.TracingEnabled = getEnvBool("TRACING_ENABLED", false)
	cfg.Observability.GRPCHealthPort = getEnvString("GRPC_HEALTH_PORT", "")
	cfg.Observability.HealthPeriod = getEnvDuration("HEALTH_CHECK_PERIOD", 30*time.Second)

	// Vault
	cfg.Vault.Enabled = getEnvBool("VAULT_ENABLED", false)
	cfg.Vault.Address = getEnvString("VAULT_ADDR", "")
	cfg.Vault.Token = getEnvString("VAULT_TOKEN", "")
	cfg.Vault.Namespace = getEnvString("VAULT_NAMESPACE", "")
	cfg.Vault.SecretsPath = getEnvString("VAULT_SECRETS_PATH", "epic-tech-ai")

	// Feature flags
	cfg.Features.EnableEffectCues = getEnvBool("ENABLE_EFFECT_CUES", false)
	cfg.Features.GlitchDuration = getEnvDuration("GLITCH_DURATION", 600*time.Millisecond)
	cfg.Features.OpenAPISchemaPath = getEnvString("OPENAPI_SCHEMA_PATH", "")

	if cfg.Reply.DelayMax < cfg.Reply.DelayMin {
		cfg.Reply.DelayMax = cfg.Reply.DelayMin
	}

	return cfg
}

// Helper functions to read environment variables with default values

func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvUint rejects negative and malformed values by returning the default
func getEnvUint(key string, defaultValue uint) uint {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseUint(value, 10, 0); err == nil {
			return uint(intVal)
		}
	}
	return defaultValue
}

func getEnvUint64(key string, defaultValue uint64) uint64 {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.ParseUint(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvFloat32(key string, defaultValue float32) float32 {
	return float32(getEnvFloat64(key, float64(defaultValue)))
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}
