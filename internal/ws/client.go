package ws

import (
	"context"
	"strings"
	"sync"
	"time"

	"epic-tech-ai/backend/internal/effects"
	"epic-tech-ai/backend/pkg/logger"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// inbound is a user message waiting for the reply worker
type inbound struct {
	text       string
	receivedAt time.Time
}

// Client is one websocket connection. Messages are answered one at a time in
// arrival order; closing the connection cancels any reply still pending.
type Client struct {
	ID   string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub

	inbox   chan inbound
	limiter *rate.Limiter
	effects *effects.Controller
	log     *logger.Logger

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func newClient(id string, conn *websocket.Conn, hub *Hub) *Client {
	ctx, cancel := context.WithCancel(logger.ContextWithRequestID(context.Background(), id))
	s := hub.settings

	c := &Client{
		ID:      id,
		Conn:    conn,
		Send:    make(chan []byte, s.SendBuffer),
		Hub:     hub,
		inbox:   make(chan inbound, s.QueueSize),
		limiter: newLimiter(s),
		log:     hub.log.WithConnID(id),
		ctx:     ctx,
		cancel:  cancel,
	}
	if s.EffectCues {
		c.effects = effects.NewController(func(cue effects.Cue) {
			c.send(EventEffect, cue)
		})
	}
	return c
}

// Start registers the client, queues the greeting and launches its goroutines
func (c *Client) Start() {
	c.Hub.register(c)

	go c.WritePump()
	go c.processMessages()
	go c.ReadPump()

	c.send(EventReply, c.Hub.replier.Greeting())
}

func newLimiter(s Settings) *rate.Limiter {
	if s.MessageRate <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(s.MessageRate), s.MessageBurst)
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		if c.effects != nil {
			c.effects.Stop()
		}
		c.Conn.Close()
		c.Hub.unregister(c)
	})
}

// ReadPump stamps and queues inbound messages until the connection fails
func (c *Client) ReadPump() {
	defer c.close()

	s := c.Hub.settings
	c.Conn.SetReadLimit(s.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(s.PongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(s.PongWait))
		return nil
	})

	for {
		messageType, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("Unexpected websocket close", "error", err.Error())
			}
			return
		}
		receivedAt := time.Now()

		if messageType != websocket.TextMessage {
			c.drop("binary", "")
			continue
		}

		text, ok := decodeInbound(data)
		if !ok {
			c.drop("unknown_event", "")
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		if !c.limiter.Allow() {
			c.drop("rate_limited", text)
			continue
		}

		c.cue(text)

		// A full inbox blocks reading instead of dropping
		select {
		case c.inbox <- inbound{text: text, receivedAt: receivedAt}:
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Client) drop(reason, text string) {
	c.Hub.recordDrop(reason)
	c.log.Warn("Dropped inbound message", "reason", reason, "length", len(text))
}

func (c *Client) cue(text string) {
	if c.effects == nil {
		return
	}
	for _, cue := range effects.Classify(text) {
		c.send(EventEffect, cue)
	}
}

func (c *Client) processMessages() {
	for {
		select {
		case <-c.ctx.Done():
			return
		case msg := <-c.inbox:
			c.respond(msg)
		}
	}
}

// respond emits the reply no earlier than the typing delay after receipt.
// A reply that takes longer than the delay to compute goes out immediately.
func (c *Client) respond(msg inbound) {
	due := msg.receivedAt.Add(c.Hub.replier.TypingDelay())
	r := c.Hub.replier.Reply(c.ctx, msg.text)

	if wait := time.Until(due); wait > 0 {
		timer := time.NewTimer(wait)
		select {
		case <-timer.C:
		case <-c.ctx.Done():
			timer.Stop()
			return
		}
	}
	if c.ctx.Err() != nil {
		return
	}

	c.log.Debug("Sending reply", "source", string(r.Source), "latency", time.Since(msg.receivedAt).String())
	c.send(EventReply, r.Text)
	if c.effects != nil {
		c.effects.Glitch(c.Hub.settings.GlitchDuration)
	}
}

func (c *Client) send(eventType string, content interface{}) {
	payload, err := encode(eventType, content)
	if err != nil {
		c.log.LogError(err, "Error marshaling message", "type", eventType)
		return
	}

	select {
	case c.Send <- payload:
	case <-c.ctx.Done():
	}
}

// WritePump writes queued frames and keeps the connection alive with pings
func (c *Client) WritePump() {
	s := c.Hub.settings
	ticker := time.NewTicker(s.PingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(s.WriteWait))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(s.WriteWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			c.Conn.SetWriteDeadline(time.Now().Add(s.WriteWait))
			c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
