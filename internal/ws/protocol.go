package ws

import (
	"encoding/json"
)

// Socket events
const (
	EventMessage     = "message"
	EventUserMessage = "user-message"
	EventReply       = "reply"
	EventEffect      = "effect"
)

// Message is the JSON envelope carried in every text frame
type Message struct {
	Type    string      `json:"type"`
	Content interface{} `json:"content"`
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

// decodeInbound extracts the user text from a frame. A JSON string frame is
// unquoted, other frames that are not a JSON object are taken verbatim as
// message text, and envelopes of other event types are rejected.
func decodeInbound(data []byte) (string, bool) {
	var quoted string
	if err := json.Unmarshal(data, &quoted); err == nil {
		return quoted, true
	}

	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return string(data), true
	}

	switch msg.Type {
	case EventMessage, EventUserMessage:
	default:
		return "", false
	}

	var text string
	if err := json.Unmarshal(msg.Content, &text); err != nil {
		return "", false
	}
	return text, true
}

func encode(eventType string, content interface{}) ([]byte, error) {
	return json.Marshal(Message{Type: eventType, Content: content})
}
