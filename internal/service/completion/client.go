package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/zhouzirui/calm-companion/backend/internal/model/chat"
	"github.com/zhouzirui/calm-companion/backend/pkg/openaichat"
)

var (
	ErrNotConfigured     = errors.New("remote completion is not configured")
	ErrRemoteFailure     = errors.New("remote completion failed")
	ErrMalformedResponse = errors.New("remote completion returned a malformed response")
)

const (
	DefaultTimeout      = 20 * time.Second
	DefaultHistoryLimit = 10
)

// Options tunes the client. Zero values use the defaults.
type Options struct {
	SystemPrompt string
	Timeout      time.Duration
	HistoryLimit int
}

// Client sends prompts through an eino chain ending in the configured chat
// model.
type Client struct {
	chain        compose.Runnable[map[string]any, *schema.Message]
	system       string
	timeout      time.Duration
	historyLimit int
}

// NewClient compiles the prompt chain around chatModel.
func NewClient(ctx context.Context, chatModel model.ChatModel, opts Options) (*Client, error) {
	if chatModel == nil {
		return nil, ErrNotConfigured
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile completion chain: %w", err)
	}

	system := strings.TrimSpace(opts.SystemPrompt)
	if system == "" {
		system = DefaultPromptTemplate().BuildSystemPrompt()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	historyLimit := opts.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	return &Client{
		chain:        runnable,
		system:       system,
		timeout:      timeout,
		historyLimit: historyLimit,
	}, nil
}

// Complete returns the generated reply for prompt. Every failure wraps one of
// ErrNotConfigured, ErrRemoteFailure or ErrMalformedResponse.
func (c *Client) Complete(ctx context.Context, prompt string, history []chat.Message) (string, error) {
	if c == nil || c.chain == nil {
		return "", ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	input := map[string]any{
		"system":  c.system,
		"history": buildHistoryMessages(history, c.historyLimit),
		"query":   prompt,
	}

	msg, err := c.chain.Invoke(ctx, input)
	if errors.Is(err, openaichat.ErrEmptyResponse) {
		return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteFailure, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", ErrMalformedResponse
	}
	return strings.TrimSpace(msg.Content), nil
}

func buildHistoryMessages(messages []chat.Message, limit int) []*schema.Message {
	if len(messages) == 0 {
		return nil
	}

	startIdx := 0
	if len(messages) > limit {
		startIdx = len(messages) - limit
	}

	history := make([]*schema.Message, 0, len(messages)-startIdx)
	for _, msg := range messages[startIdx:] {
		switch msg.Sender {
		case chat.SenderUser:
			history = append(history, schema.UserMessage(msg.Content))
		case chat.SenderAssistant:
			history = append(history, schema.AssistantMessage(msg.Content, nil))
		}
	}
	return history
}
