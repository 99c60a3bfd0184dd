package reply

import (
	"strings"
	"time"
)

// Canned replies keyed by trigger phrase
const (
	PortalReply     = "✨ 1111 / 333 portal activated... vibes ascending 🚀💫 what u seeing in the void rn? 🌌"
	IgnitionReply   = "🔥 LIGHT UP!!! *flick* *inhale* *clouds everywhere* 😤💨 who's matching? 🌿✨"
	PuffReply       = "puff... puff... passsss 🌬️💨🔄 here take this hit of pure chaos 🔥 what's the move?"
	FourTwentyReply = "420 friendly zone activated 😤🌿 what's the strain of the day? gas or creative juice? 💨"
	GreetReply      = "yo yo yooo 🔥 what's good? ready to get weird? 🚀🌿"
	StatusReply     = "charged up on espresso and good energy ☕⚡ u holdin? 😤"
)

// genericPool is used when no trigger phrase matches
var genericPool = [...]string{
	"yo what's the vibe check? 🌙✨",
	"caffeine + code + chaos = me rn ☕💾🔥 u with me?",
	"just manifested a neon dragon in my mind palace 🐉🌃 u seein it too?",
	"blunt rotation in the metaverse who's next? 😤💨",
	"glitch art session loading... send prompt or we freestyle? 🎨⚡",
	"late night coding gang where u at? 🌃⌨️💜",
}

// rule maps trigger phrases to one fixed reply. exact phrases must equal the
// whole normalized input; contains phrases may appear anywhere.
type rule struct {
	contains []string
	exact    []string
	reply    string
}

// rules are evaluated in order; the first match wins
var rules = []rule{
	{contains: []string{"1111", "333"}, reply: PortalReply},
	{contains: []string{"light up", "lightup"}, reply: IgnitionReply},
	{contains: []string{"puff puff pass"}, exact: []string{"puff"}, reply: PuffReply},
	{contains: []string{"420", "weed", "blunt"}, reply: FourTwentyReply},
	{contains: []string{"hi", "hey", "yo"}, reply: GreetReply},
	{contains: []string{"how are you", "sup"}, reply: StatusReply},
}

func (r rule) match(normalized string) bool {
	for _, phrase := range r.exact {
		if normalized == phrase {
			return true
		}
	}
	for _, phrase := range r.contains {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}
	return false
}

// Normalize lower-cases and trims user input before matching
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// MatchRule returns the canned reply for the first trigger phrase found in text
func MatchRule(text string) (string, bool) {
	normalized := Normalize(text)
	for _, r := range rules {
		if r.match(normalized) {
			return r.reply, true
		}
	}
	return "", false
}

// PoolReply maps a draw in [0,1) onto the generic pool. Out-of-range draws are clamped.
func PoolReply(draw float64) string {
	idx := int(draw * float64(len(genericPool)))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(genericPool) {
		idx = len(genericPool) - 1
	}
	return genericPool[idx]
}

// GenericPool returns a copy of the generic reply pool
func GenericPool() []string {
	out := make([]string, len(genericPool))
	copy(out, genericPool[:])
	return out
}

// Fallback picks the rule reply for text, or the pool entry selected by draw
func Fallback(text string, draw float64) Reply {
	if r, ok := MatchRule(text); ok {
		return Reply{Text: r, Source: SourceRule}
	}
	return Reply{Text: PoolReply(draw), Source: SourcePool}
}

// Default typing delay window
const (
	DefaultDelayMin = 600 * time.Millisecond
	DefaultDelayMax = 1500 * time.Millisecond
)

// TypingDelay maps a draw in [0,1) onto [min, max). A degenerate window returns min.
func TypingDelay(draw float64, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	if draw < 0 {
		draw = 0
	}
	span := max - min
	d := min + time.Duration(draw*float64(span))
	if d >= max {
		d = max - 1
	}
	return d
}
