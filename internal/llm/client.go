// Package llm talks to an OpenAI-compatible chat completions endpoint.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"epic-tech-ai/backend/internal/reply"
	"epic-tech-ai/backend/pkg/logger"
	"epic-tech-ai/backend/pkg/resilience"

	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Config describes the completion endpoint and sampling parameters
type Config struct {
	APIKey           string
	Endpoint         string
	Model            string
	Timeout          time.Duration
	Temperature      float32
	MaxTokens        int
	PresencePenalty  float32
	FrequencyPenalty float32
	SystemPrompt     string
}

// Client implements reply.Completer
type Client struct {
	api     *openai.Client
	cfg     Config
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
	tracer  trace.Tracer
}

// NewClient builds a client. An empty APIKey yields a client whose Complete
// always reports reply.ErrNoCredentials.
func NewClient(cfg Config, breaker *resilience.CircuitBreaker, log *logger.Logger) *Client {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = reply.PersonaPrompt
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.GetGlobal()
	}
	if breaker == nil {
		breaker = resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig("llm"), log)
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		apiCfg.BaseURL = BaseURL(cfg.Endpoint)
	}
	apiCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Client{
		api:     openai.NewClientWithConfig(apiCfg),
		cfg:     cfg,
		breaker: breaker,
		log:     log,
		tracer:  otel.Tracer("epic-tech-ai/backend/internal/llm"),
	}
}

// BaseURL turns a full chat completions URL into the base URL go-openai expects
func BaseURL(endpoint string) string {
	base := strings.TrimRight(strings.TrimSpace(endpoint), "/")
	base = strings.TrimSuffix(base, "/chat/completions")
	return strings.TrimRight(base, "/")
}

// Configured reports whether credentials are present
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// State exposes the breaker state for health reporting
func (c *Client) State() resilience.CircuitBreakerState {
	return c.breaker.GetState()
}

// Complete requests one persona completion for userText
func (c *Client) Complete(ctx context.Context, userText string) (string, error) {
	if !c.Configured() {
		return "", reply.ErrNoCredentials
	}

	ctx, span := c.tracer.Start(ctx, "llm.Complete",
		trace.WithAttributes(attribute.String("llm.model", c.cfg.Model)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.cfg.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userText},
		},
		Temperature:      c.cfg.Temperature,
		MaxTokens:        c.cfg.MaxTokens,
		PresencePenalty:  c.cfg.PresencePenalty,
		FrequencyPenalty: c.cfg.FrequencyPenalty,
	}

	var resp openai.ChatCompletionResponse
	err := c.breaker.Execute(func() error {
		var callErr error
		resp, callErr = c.api.CreateChatCompletion(ctx, req)
		return callErr
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", reply.ErrEmptyCompletion
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", reply.ErrEmptyCompletion
	}

	span.SetAttributes(attribute.Int("llm.completion_tokens", resp.Usage.CompletionTokens))
	c.log.WithContext(ctx).Debug("Completion received",
		"model", c.cfg.Model,
		"length", len(content),
	)
	return content, nil
}
