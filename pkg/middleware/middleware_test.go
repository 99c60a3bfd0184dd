package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"epic-tech-ai/backend/pkg/errors"
	"epic-tech-ai/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func get(r http.Handler, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	rl := NewRateLimiter(logger.Discard(), RateLimiterOptions{
		Limit: 0.001,
		Burst: 2,
		Skip:  func(c *gin.Context) bool { return c.Request.URL.Path == "/health" },
	})

	r := gin.New()
	r.Use(errors.ErrorHandler())
	r.Use(rl.Middleware())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	assert.Equal(t, http.StatusOK, get(r, "/ping", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/ping", nil).Code)

	w := get(r, "/ping", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Contains(t, w.Body.String(), errors.CodeRateLimitExceeded)

	assert.Equal(t, http.StatusOK, get(r, "/health", nil).Code)
	assert.Equal(t, 1, rl.Clients())
}

func TestRateLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(logger.Discard(), RateLimiterOptions{Limit: 1, Burst: 1, ExpiryDuration: time.Millisecond})
	rl.getLimiter("10.0.0.1")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rl.Cleanup(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return rl.Clients() == 0 }, time.Second, 5*time.Millisecond)
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"https://nebula.example"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/x", map[string]string{"Origin": "https://nebula.example"})
	assert.Equal(t, "https://nebula.example", w.Header().Get("Access-Control-Allow-Origin"))

	w = get(r, "/x", map[string]string{"Origin": "https://other.example"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCORSWildcard(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"*"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, "*", get(r, "/x", nil).Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "https://any.example",
		get(r, "/x", map[string]string{"Origin": "https://any.example"}).Header().Get("Access-Control-Allow-Origin"))
}

func TestTracingRecordsServerSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	r := gin.New()
	r.Use(Tracing("epic-tech-ai"))
	r.GET("/api/v1/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := get(r, "/api/v1/health", nil)

	assert.Len(t, w.Header().Get("X-Trace-ID"), 32)
	spans := recorder.Ended()
	if assert.Len(t, spans, 1) {
		assert.Equal(t, "GET /api/v1/health", spans[0].Name())
	}
}
