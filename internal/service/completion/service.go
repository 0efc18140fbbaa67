package completion

import (
	"context"
	"log"

	"github.com/zhouzirui/calm-companion/backend/internal/model/chat"
)

// Result is what the UI receives for a prompt. Source tells whether the text
// came from the remote model or the fallback pool.
type Result struct {
	Text   string `json:"content"`
	Source string `json:"source"`
}

// Service pairs the remote client with the fallback pool. Remote errors never
// leave this type.
type Service struct {
	client   *Client
	fallback *FallbackPool
}

// NewService wires client and fallback. A nil client means fallback-only mode.
func NewService(client *Client, fallback *FallbackPool) *Service {
	return &Service{client: client, fallback: fallback}
}

// Enabled reports whether a remote model is wired.
func (s *Service) Enabled() bool {
	return s != nil && s.client != nil
}

// Reply asks the remote model and substitutes a fallback line on any failure,
// including timeout and cancellation.
func (s *Service) Reply(ctx context.Context, prompt string, history []chat.Message) Result {
	if !s.Enabled() {
		return s.fallbackResult()
	}

	text, err := s.client.Complete(ctx, prompt, history)
	if err != nil {
		log.Printf("[completion] remote call failed, use fallback: %v", err)
		return s.fallbackResult()
	}
	return Result{Text: text, Source: chat.SourceRemote}
}

// Fallback exposes the pool used for substitutions.
func (s *Service) Fallback() *FallbackPool {
	return s.fallback
}

func (s *Service) fallbackResult() Result {
	return Result{Text: s.fallback.Pick(), Source: chat.SourceFallback}
}
