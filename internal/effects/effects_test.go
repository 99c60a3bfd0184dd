package effects

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func kinds(cues []Cue) []Kind {
	out := make([]Kind, 0, len(cues))
	for _, c := range cues {
		out = append(out, c.Kind)
	}
	return out
}

func TestClassify(t *testing.T) {
	assert.Nil(t, Classify("   "))
	assert.Equal(t, []Kind{KindJitter}, kinds(Classify("hello")))
	assert.Equal(t, []Kind{KindJitter, KindSmoke}, kinds(Classify("LIGHT   UP")))
	assert.Equal(t, []Kind{KindJitter, KindSmoke}, kinds(Classify("puff puffpass")))

	cues := Classify(" 1111 ")
	assert.Equal(t, []Kind{KindJitter, KindFlash}, kinds(cues))
	assert.Equal(t, "#ff00ff", cues[1].Color)
	assert.NotEmpty(t, cues[1].LocalReply)

	assert.Equal(t, "#00ffae", Classify("333")[1].Color)
	assert.Equal(t, []Kind{KindJitter}, kinds(Classify("11111")))
}

type recorder struct {
	mu   sync.Mutex
	cues []Cue
}

func (r *recorder) emit(c Cue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cues = append(r.cues, c)
}

func (r *recorder) snapshot() []Cue {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Cue(nil), r.cues...)
}

func TestGlitchTurnsOffAfterDuration(t *testing.T) {
	rec := &recorder{}
	c := NewController(rec.emit)

	c.Glitch(20 * time.Millisecond)
	assert.True(t, c.Active())

	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	got := rec.snapshot()
	assert.Equal(t, Cue{Kind: KindGlitch, State: "on"}, got[0])
	assert.Equal(t, Cue{Kind: KindGlitch, State: "off"}, got[1])
	assert.False(t, c.Active())
}

func TestGlitchSupersedesInFlightTimer(t *testing.T) {
	rec := &recorder{}
	c := NewController(rec.emit)

	c.Glitch(40 * time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	c.Glitch(80 * time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []Cue{{Kind: KindGlitch, State: "on"}}, rec.snapshot(), "first off timer must be cancelled")

	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "off", rec.snapshot()[1].State)
}

func TestStopCancelsPendingGlitch(t *testing.T) {
	rec := &recorder{}
	c := NewController(rec.emit)

	c.Glitch(20 * time.Millisecond)
	c.Stop()
	c.Glitch(20 * time.Millisecond)

	time.Sleep(60 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
	assert.False(t, c.Active())
}

func TestGlitchRetriggerWhileOffCallbackIsPending(t *testing.T) {
	rec := &recorder{}
	c := NewController(rec.emit)

	c.Glitch(time.Hour)

	// The first timer has fired but its callback has not taken the lock yet
	c.mu.Lock()
	c.timer.Stop()
	firstGen := c.gen
	c.mu.Unlock()

	c.Glitch(20 * time.Millisecond)
	c.fireOff(firstGen)

	assert.Equal(t, []Cue{{Kind: KindGlitch, State: "on"}}, rec.snapshot())
	assert.True(t, c.Active())

	assert.Eventually(t, func() bool { return len(rec.snapshot()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, Cue{Kind: KindGlitch, State: "off"}, rec.snapshot()[1])
	assert.False(t, c.Active())
}
