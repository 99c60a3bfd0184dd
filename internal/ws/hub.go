package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"epic-tech-ai/backend/internal/reply"
	"epic-tech-ai/backend/pkg/config"
	"epic-tech-ai/backend/pkg/logger"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Replier produces the greeting, replies and typing delays sent to clients
type Replier interface {
	Greeting() string
	Reply(ctx context.Context, text string) reply.Reply
	TypingDelay() time.Duration
}

// Settings holds the per-connection socket tuning
type Settings struct {
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
	MaxMessageSize int64
	SendBuffer     int
	QueueSize      int
	MessageRate    float64
	MessageBurst   int
	AllowedOrigins []string
	EffectCues     bool
	GlitchDuration time.Duration
}

// DefaultSettings mirrors the configuration defaults
func DefaultSettings() Settings {
	return Settings{
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		PingPeriod:     54 * time.Second,
		MaxMessageSize: 4096,
		SendBuffer:     64,
		QueueSize:      16,
		MessageRate:    0,
		MessageBurst:   5,
		AllowedOrigins: []string{"*"},
		GlitchDuration: 600 * time.Millisecond,
	}
}

// SettingsFromConfig builds socket settings from the application config
func SettingsFromConfig(cfg *config.Config) Settings {
	s := DefaultSettings()
	s.WriteWait = cfg.WebSocket.WriteWait
	s.PongWait = cfg.WebSocket.PongWait
	s.PingPeriod = cfg.WebSocket.PingPeriod
	s.MaxMessageSize = cfg.WebSocket.MaxMessageSize
	s.QueueSize = cfg.WebSocket.QueueSize
	s.MessageRate = cfg.WebSocket.MessageRate
	s.MessageBurst = cfg.WebSocket.MessageBurst
	s.AllowedOrigins = cfg.Security.AllowedOrigins
	s.EffectCues = cfg.Features.EnableEffectCues
	s.GlitchDuration = cfg.Features.GlitchDuration
	return s
}

// Hub tracks live connections and the dependencies they share
type Hub struct {
	clients  map[*Client]struct{}
	mu       sync.Mutex
	replier  Replier
	settings Settings
	upgrader websocket.Upgrader
	log      *logger.Logger

	active  metric.Int64UpDownCounter
	dropped metric.Int64Counter
}

// NewHub creates a hub serving replies from replier
func NewHub(replier Replier, settings Settings, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.GetGlobal()
	}

	defaults := DefaultSettings()
	if settings.SendBuffer <= 0 {
		settings.SendBuffer = defaults.SendBuffer
	}
	if settings.QueueSize <= 0 {
		settings.QueueSize = defaults.QueueSize
	}
	if settings.PingPeriod <= 0 {
		settings.PingPeriod = defaults.PingPeriod
	}
	if settings.PongWait <= 0 {
		settings.PongWait = defaults.PongWait
	}
	if settings.WriteWait <= 0 {
		settings.WriteWait = defaults.WriteWait
	}

	h := &Hub{
		clients:  make(map[*Client]struct{}),
		replier:  replier,
		settings: settings,
		log:      log,
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin:      h.checkOrigin,
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
	}

	meter := otel.Meter("epic-tech-ai/backend/internal/ws")
	h.active, _ = meter.Int64UpDownCounter("ws_active_connections",
		metric.WithDescription("Open websocket connections"))
	h.dropped, _ = meter.Int64Counter("ws_messages_dropped_total",
		metric.WithDescription("Inbound messages discarded before reaching the reply worker"))

	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.settings.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	h.log.Warn("Rejected websocket origin", "origin", origin)
	return false
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	if h.active != nil {
		h.active.Add(context.Background(), 1)
	}
	c.log.Info("Client connected", "clients", h.Count())
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	delete(h.clients, c)
	h.mu.Unlock()

	if !ok {
		return
	}
	if h.active != nil {
		h.active.Add(context.Background(), -1)
	}
	c.log.Info("Client disconnected", "clients", h.Count())
}

func (h *Hub) recordDrop(reason string) {
	if h.dropped != nil {
		h.dropped.Add(context.Background(), 1, metric.WithAttributes(attribute.String("reason", reason)))
	}
}

// Count returns the number of open connections
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Shutdown closes every open connection, cancelling their pending replies
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}
