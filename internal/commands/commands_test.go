package commands

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"epic-tech-ai/backend/internal/reply"
	"epic-tech-ai/backend/internal/ws"
	"epic-tech-ai/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestVersionFlag(t *testing.T) {
	out, err := run(t, "", "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "nebula "+Version)
}

func TestAskOffline(t *testing.T) {
	out, err := run(t, "", "ask", "--offline", "--source", "blaze", "420")
	require.NoError(t, err)
	assert.Equal(t, reply.FourTwentyReply+" [rule]\n", out)
}

func TestAskReadsStdin(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")

	out, err := run(t, "  puff puff pass  \n", "ask")
	require.NoError(t, err)
	assert.Equal(t, reply.PuffReply+"\n", out)
}

func TestAskRejectsEmptyInput(t *testing.T) {
	_, err := run(t, "   ", "ask")
	assert.Error(t, err)
}

func TestAskUsesCompletionEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-cli", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"c1","object":"chat.completion","created":1,"model":"gpt-4o-mini",` +
			`"choices":[{"index":0,"message":{"role":"assistant","content":"  glitch mode engaged  "},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	t.Setenv("LLM_API_KEY", "sk-cli")
	t.Setenv("LLM_ENDPOINT", srv.URL+"/v1/chat/completions")

	out, err := run(t, "", "ask", "-s", "tell", "me", "something")
	require.NoError(t, err)
	assert.Equal(t, "glitch mode engaged [llm]\n", out)
}

func startHub(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	service := reply.NewService(reply.Options{
		Logger:   logger.Discard(),
		DelayMin: time.Millisecond,
		DelayMax: time.Millisecond,
	})
	hub := ws.NewHub(service, ws.DefaultSettings(), logger.Discard())

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ws.ServeWs(hub, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Shutdown()
		srv.Close()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestChatSendsLinesAndPrintsReplies(t *testing.T) {
	url := startHub(t)

	out, err := run(t, "420\n\n   \nlight up\n", "chat", "--url", url, "--wait", "5s")
	require.NoError(t, err)

	assert.Contains(t, out, "🤖: "+reply.GreetingText)
	assert.Contains(t, out, "🤖: "+reply.FourTwentyReply)
	assert.Contains(t, out, "🤖: "+reply.IgnitionReply)
	assert.Equal(t, 3, strings.Count(out, "🤖: "))
}

func TestChatConnectFailure(t *testing.T) {
	_, err := run(t, "", "chat", "--url", "ws://127.0.0.1:1/ws")
	assert.Error(t, err)
}
