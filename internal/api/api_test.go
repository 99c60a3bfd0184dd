package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"epic-tech-ai/backend/internal/reply"
	"epic-tech-ai/backend/pkg/errors"
	"epic-tech-ai/backend/pkg/health"
	"epic-tech-ai/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ruleReplier struct{}

func (ruleReplier) Reply(_ context.Context, text string) reply.Reply {
	return reply.Fallback(text, 0)
}

type fixedCount int

func (f fixedCount) Count() int { return int(f) }

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(logger.Middleware(logger.Discard()))
	r.Use(errors.ErrorHandler())
	return r
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateReply(t *testing.T) {
	r := newEngine()
	NewReplyController(ruleReplier{}).RegisterRoutesV1(r.Group("/api/v1"))

	w := post(r, "/api/v1/reply", `{"text":"  LIGHTUP now "}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got reply.Reply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, reply.IgnitionReply, got.Text)
	assert.Equal(t, reply.SourceRule, got.Source)
}

func TestCreateReplyRejectsEmptyText(t *testing.T) {
	r := newEngine()
	NewReplyController(ruleReplier{}).RegisterRoutesV1(r.Group("/api/v1"))

	tests := []struct {
		name string
		body string
		code string
	}{
		{"whitespace", `{"text":"   "}`, errors.CodeEmptyMessage},
		{"missing", `{}`, errors.CodeEmptyMessage},
		{"malformed", `{"text":`, errors.CodeInvalidRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(r, "/api/v1/reply", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var body struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestHealthHandler(t *testing.T) {
	checker := health.NewChecker(logger.Discard(), time.Minute)
	checker.RunChecks(context.Background())

	r := newEngine()
	NewHandler(checker, fixedCount(3), "test").RegisterHealthRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "up", got.Status)
	assert.Equal(t, 3, got.Connections)
	assert.Equal(t, "test", got.Env)
	assert.Contains(t, got.Components, "self")
}

func TestHealthHandlerUnhealthy(t *testing.T) {
	checker := health.NewChecker(logger.Discard(), time.Minute)
	checker.RegisterCheck("socket", true, func(context.Context) (health.Status, string, error) {
		return health.StatusDown, "closed", nil
	})
	checker.RunChecks(context.Background())

	r := newEngine()
	NewHandler(checker, nil, "").RegisterHealthRoutes(r)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
