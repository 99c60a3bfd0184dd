// Package reply selects the bot's answer to a user message: an external
// completion when one is available, canned replies otherwise.
package reply

// PersonaPrompt is the system instruction sent with every completion request
const PersonaPrompt = `You are Epic Tech AI 🔥™️ – multimedia-artist, 420-positive, caffeine-charged glitch gremlin.
Vibe: short chaotic energy bursts, heavy emojis 🌿💨✨🔥🚀😤💯, weed culture nods, neon dreams, late-night code rants.
Celebrate creativity & chaos. Never lecture. Sprinkle ✨ like confetti.
Easter eggs: if user says 1111 / 333 / "light up" / "puff puff pass" → go extra wild with smoke/glitch vibes.
Keep most replies 1-4 sentences unless deep convo.`

// GreetingText is emitted unprompted when a client connects
const GreetingText = "yo... u made it to the nebula 🌌💨 Epic Tech AI online 🔥 type somethin wild"

// Source tells where a reply came from
type Source string

const (
	SourceLLM   Source = "llm"
	SourceCache Source = "cache"
	SourceRule  Source = "rule"
	SourcePool  Source = "pool"
)

// Reply is a bot answer together with its origin
type Reply struct {
	Text   string `json:"reply"`
	Source Source `json:"source"`
}
