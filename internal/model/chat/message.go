package chat

import "time"

const (
	SenderUser      = "user"
	SenderAssistant = "assistant"
)

// Source values record which path produced an assistant message.
const (
	SourceRules    = "rules"
	SourceRemote   = "remote"
	SourceFallback = "fallback"
)

// Message persists individual turns of one conversation. Suggestion names a
// UI action offered with a rule reply, e.g. breathing_exercise.
type Message struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"sessionId"`
	Sender     string    `json:"sender"`
	Content    string    `json:"content"`
	Category   string    `json:"category,omitempty"`
	Source     string    `json:"source,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
