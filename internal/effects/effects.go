// Package effects decides which transient visual cues a chat event should
// trigger and owns the timer that switches the glitch pass off again.
package effects

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

// Kind names a visual cue understood by the presentation layer
type Kind string

const (
	KindJitter Kind = "jitter"
	KindSmoke  Kind = "smoke"
	KindFlash  Kind = "flash"
	KindGlitch Kind = "glitch"
)

// Cue is one effect instruction. Color and LocalReply are only set for flashes.
type Cue struct {
	Kind       Kind   `json:"kind"`
	State      string `json:"state,omitempty"`
	Color      string `json:"color,omitempty"`
	LocalReply string `json:"localReply,omitempty"`
}

var smokePattern = regexp.MustCompile(`(?i)light\s*up|puff\s*puff\s*pass`)

// flashes fire only when the trimmed message is exactly the key
var flashes = map[string]Cue{
	"1111": {Kind: KindFlash, Color: "#ff00ff", LocalReply: "✨ 1111 – the universe winks. Keep vibing! ✨"},
	"333":  {Kind: KindFlash, Color: "#00ffae", LocalReply: "🙌 333 gratitude overload! Thank you for the love 🙏"},
}

// Classify returns the cues a user message triggers, in firing order
func Classify(text string) []Cue {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	cues := []Cue{{Kind: KindJitter}}
	if smokePattern.MatchString(trimmed) {
		cues = append(cues, Cue{Kind: KindSmoke})
	}
	if flash, ok := flashes[trimmed]; ok {
		cues = append(cues, flash)
	}
	return cues
}

// Controller owns the single glitch timer for one connection. Triggering a
// new glitch stops the pending "off" timer before arming another.
type Controller struct {
	mu      sync.Mutex
	emit    func(Cue)
	timer   *time.Timer
	gen     uint64
	on      bool
	stopped bool
}

// NewController returns a controller that reports cues through emit
func NewController(emit func(Cue)) *Controller {
	return &Controller{emit: emit}
}

// Glitch turns the glitch on now and off after d, superseding any glitch in flight
func (c *Controller) Glitch(d time.Duration) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	wasOn := c.on
	c.on = true
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(d, func() { c.fireOff(gen) })
	c.mu.Unlock()

	// Only the transition from off is announced
	if !wasOn {
		c.emit(Cue{Kind: KindGlitch, State: "on"})
	}
}

func (c *Controller) fireOff(gen uint64) {
	c.mu.Lock()
	if c.stopped || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.on = false
	c.mu.Unlock()

	c.emit(Cue{Kind: KindGlitch, State: "off"})
}

// Active reports whether the glitch is currently on
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.on
}

// Stop cancels any pending timer; later Glitch calls are ignored
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopped = true
	c.on = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
