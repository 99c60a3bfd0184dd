package api

import (
	"net/http"
	"runtime"
	"time"

	"epic-tech-ai/backend/pkg/health"

	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoints
var Version = "1.0.0"

// ConnectionCounter reports how many sockets are open
type ConnectionCounter interface {
	Count() int
}

// Handler handles health check endpoints
type Handler struct {
	checker     *health.Checker
	connections ConnectionCounter
	env         string
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status      string                       `json:"status"`
	Timestamp   time.Time                    `json:"timestamp"`
	Version     string                       `json:"version"`
	Env         string                       `json:"env,omitempty"`
	Connections int                          `json:"active_connections"`
	Components  map[string]*health.Component `json:"components,omitempty"`
	Memory      map[string]uint64            `json:"memory"`
}

// NewHandler creates a health handler. checker and connections may be nil.
func NewHandler(checker *health.Checker, connections ConnectionCounter, env string) *Handler {
	return &Handler{checker: checker, connections: connections, env: env}
}

// HealthHandler reports the component snapshot. It answers 503 only when a
// critical component is down.
func (h *Handler) HealthHandler(c *gin.Context) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   Version,
		Env:       h.env,
		Memory: map[string]uint64{
			"alloc_mb":  memStats.Alloc / 1024 / 1024,
			"sys_mb":    memStats.Sys / 1024 / 1024,
			"gc_cycles": uint64(memStats.NumGC),
		},
	}
	if h.connections != nil {
		response.Connections = h.connections.Count()
	}

	code := http.StatusOK
	if h.checker != nil {
		response.Components = h.checker.GetStatus()
		response.Status = string(h.checker.Overall())
		if !h.checker.IsSystemHealthy() {
			code = http.StatusServiceUnavailable
		}
	}

	c.JSON(code, response)
}

// RegisterHealthRoutes registers health check related routes
func (h *Handler) RegisterHealthRoutes(router gin.IRoutes) {
	router.GET("/health", h.HealthHandler)
}
