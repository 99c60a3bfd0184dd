package reply

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFallbackTriggerPhrases(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"portal 1111", "1111", PortalReply},
		{"portal 333 embedded", "saw 333 again", PortalReply},
		{"portal wins over ignition", "1111 light up", PortalReply},
		{"ignition spaced", "LIGHT UP fam", IgnitionReply},
		{"ignition joined", "time to lightup", IgnitionReply},
		{"puff exact", "  Puff ", PuffReply},
		{"puff puff pass", "puff puff pass it", PuffReply},
		{"420", "420", FourTwentyReply},
		{"weed", "got WEED?", FourTwentyReply},
		{"blunt", "roll a blunt", FourTwentyReply},
		{"greeting yo", "yo", GreetReply},
		{"greeting hey", "Hey there", GreetReply},
		{"greeting substring", "this", GreetReply},
		{"how are you shadowed by yo", "how are you", GreetReply},
		{"sup", "sup", StatusReply},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Fallback(tc.input, 0.5)
			assert.Equal(t, tc.want, got.Text)
			assert.Equal(t, SourceRule, got.Source)
		})
	}
}

func TestFallbackUsesPoolWhenNothingMatches(t *testing.T) {
	pool := GenericPool()

	got := Fallback("puffy", 0)
	assert.Equal(t, SourcePool, got.Source)
	assert.Equal(t, pool[0], got.Text)

	got = Fallback("zzz", 0.99)
	assert.Equal(t, pool[len(pool)-1], got.Text)
}

func TestPoolReplyIsPureAndClamped(t *testing.T) {
	pool := GenericPool()

	assert.Equal(t, pool[0], PoolReply(-3))
	assert.Equal(t, pool[len(pool)-1], PoolReply(1))
	assert.Equal(t, pool[2], PoolReply(2.5/float64(len(pool))))
	assert.Equal(t, PoolReply(0.42), PoolReply(0.42))

	d := NewDrawer(7)
	for i := 0; i < 500; i++ {
		assert.Contains(t, pool, PoolReply(d.Float64()))
	}
}

func TestSeededDrawerIsDeterministic(t *testing.T) {
	a, b := NewDrawer(99), NewDrawer(99)
	for i := 0; i < 20; i++ {
		assert.Equal(t, Fallback("zzz", a.Float64()), Fallback("zzz", b.Float64()))
	}
}

func TestTypingDelayWindow(t *testing.T) {
	assert.Equal(t, 600*time.Millisecond, TypingDelay(0, DefaultDelayMin, DefaultDelayMax))
	assert.Equal(t, 1050*time.Millisecond, TypingDelay(0.5, DefaultDelayMin, DefaultDelayMax))
	assert.Less(t, TypingDelay(1, DefaultDelayMin, DefaultDelayMax), DefaultDelayMax)
	assert.Equal(t, 600*time.Millisecond, TypingDelay(-1, DefaultDelayMin, DefaultDelayMax))
	assert.Equal(t, time.Second, TypingDelay(0.7, time.Second, time.Second))

	d := NewDrawer(1)
	for i := 0; i < 1000; i++ {
		got := TypingDelay(d.Float64(), DefaultDelayMin, DefaultDelayMax)
		assert.GreaterOrEqual(t, got, DefaultDelayMin)
		assert.Less(t, got, DefaultDelayMax)
	}
}
