package chat

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/calm-companion/backend/internal/model/chat"
	"github.com/zhouzirui/calm-companion/backend/internal/model/script"
	"github.com/zhouzirui/calm-companion/backend/internal/service/completion"
	"github.com/zhouzirui/calm-companion/backend/internal/service/responder"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrConversationBusy = errors.New("conversation is awaiting a reply")
)

// RouterFactory builds the router owned by a new session.
type RouterFactory func() (*responder.Router, error)

// Config wires the service. Nil fields get defaults built from script.Seed.
type Config struct {
	NewRouter  RouterFactory
	Pacer      *responder.Pacer
	Completion *completion.Service
}

// Service keeps every live conversation in memory. Each conversation owns its
// router, so metrics and pools are never shared across sessions.
type Service struct {
	mu            sync.RWMutex
	conversations map[string]*conversation

	newRouter  RouterFactory
	pacer      *responder.Pacer
	completion *completion.Service
}

type conversation struct {
	session chat.Session
	busy    chan struct{}

	mu       sync.Mutex
	router   *responder.Router
	messages []chat.Message
}

// NewService bootstraps the in-memory chat service.
func NewService(cfg Config) (*Service, error) {
	if cfg.NewRouter == nil {
		cfg.NewRouter = func() (*responder.Router, error) {
			return responder.NewRouter(script.Seed(), responder.Config{})
		}
	}
	if cfg.Pacer == nil {
		cfg.Pacer = responder.NewPacer(responder.DefaultPacerConfig())
	}
	if cfg.Completion == nil {
		fallback, err := completion.NewFallbackPool(script.Seed().Fallback, nil)
		if err != nil {
			return nil, err
		}
		cfg.Completion = completion.NewService(nil, fallback)
	}

	return &Service{
		conversations: make(map[string]*conversation),
		newRouter:     cfg.NewRouter,
		pacer:         cfg.Pacer,
		completion:    cfg.Completion,
	}, nil
}

// CreateSession provisions an anonymous session with fresh metrics.
func (s *Service) CreateSession(_ context.Context) (chat.Session, error) {
	router, err := s.newRouter()
	if err != nil {
		return chat.Session{}, fmt.Errorf("create router: %w", err)
	}

	session := chat.Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.conversations[session.ID] = &conversation{
		session:  session,
		busy:     make(chan struct{}, 1),
		router:   router,
		messages: make([]chat.Message, 0, 16),
	}
	s.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by identifier.
func (s *Service) GetSession(_ context.Context, sessionID string) (chat.Session, error) {
	conv, err := s.lookup(sessionID)
	if err != nil {
		return chat.Session{}, err
	}
	return conv.session, nil
}

// DeleteSession discards the session and everything it accumulated.
func (s *Service) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.conversations, sessionID)
	return nil
}

// LoadTranscript returns stored messages for the provided session.
func (s *Service) LoadTranscript(_ context.Context, sessionID string) ([]chat.Message, error) {
	conv, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()
	return slices.Clone(conv.messages), nil
}

// Metrics returns the session counters.
func (s *Service) Metrics(_ context.Context, sessionID string) (responder.Snapshot, error) {
	conv, err := s.lookup(sessionID)
	if err != nil {
		return responder.Snapshot{}, err
	}

	conv.mu.Lock()
	defer conv.mu.Unlock()
	return conv.router.Metrics(), nil
}

// Respond waits the thinking delay, then routes text and records both turns.
// Cancelling ctx during the delay leaves the session untouched.
func (s *Service) Respond(ctx context.Context, sessionID, text string) (chat.Message, responder.Reply, error) {
	conv, err := s.acquire(sessionID)
	if err != nil {
		return chat.Message{}, responder.Reply{}, err
	}
	defer conv.release()

	if err := s.pacer.Think(ctx, text); err != nil {
		return chat.Message{}, responder.Reply{}, err
	}

	msg, reply := conv.route(text)
	return msg, reply, nil
}

// StreamRespond routes text immediately and returns the reply as a lazy token
// sequence paced by the per-token delay.
func (s *Service) StreamRespond(ctx context.Context, sessionID, text string) (chat.Message, iter.Seq2[string, error], error) {
	conv, err := s.acquire(sessionID)
	if err != nil {
		return chat.Message{}, nil, err
	}
	msg, _ := conv.route(text)
	conv.release()

	return msg, s.pacer.Tokens(ctx, msg.Content), nil
}

// Complete sends prompt to the remote model, or the fallback pool when the
// call fails. With a session id the transcript is used as history and both
// turns are recorded.
func (s *Service) Complete(ctx context.Context, sessionID, prompt string) (completion.Result, error) {
	if sessionID == "" {
		return s.completion.Reply(ctx, prompt, nil), nil
	}

	conv, err := s.acquire(sessionID)
	if err != nil {
		return completion.Result{}, err
	}
	defer conv.release()

	conv.mu.Lock()
	history := slices.Clone(conv.messages)
	conv.mu.Unlock()

	result := s.completion.Reply(ctx, prompt, history)

	conv.mu.Lock()
	conv.append(chat.SenderUser, prompt, "", "")
	conv.append(chat.SenderAssistant, result.Text, "", result.Source)
	conv.mu.Unlock()

	log.Printf("[chat] session=%s completion source=%s", sessionID, result.Source)
	return result, nil
}

// RemoteEnabled reports whether prompts reach a remote model.
func (s *Service) RemoteEnabled() bool {
	return s.completion.Enabled()
}

func (s *Service) lookup(sessionID string) (*conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return conv, nil
}

func (s *Service) acquire(sessionID string) (*conversation, error) {
	conv, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	select {
	case conv.busy <- struct{}{}:
		return conv, nil
	default:
		return nil, ErrConversationBusy
	}
}

func (c *conversation) release() {
	<-c.busy
}

// route classifies text against the prior transcript and stores both turns.
func (c *conversation) route(text string) (chat.Message, responder.Reply) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reply := c.router.Respond(text, c.messages)
	c.append(chat.SenderUser, text, "", "")
	msg := c.append(chat.SenderAssistant, reply.Text, string(reply.Category), chat.SourceRules)
	msg.Suggestion = reply.Suggestion
	c.messages[len(c.messages)-1] = msg

	metrics := c.router.Metrics()
	log.Printf("[chat] session=%s category=%s total=%d", c.session.ID, reply.Category, metrics.TotalInteractions)
	return msg, reply
}

func (c *conversation) append(sender, content, category, source string) chat.Message {
	msg := chat.Message{
		ID:        uuid.NewString(),
		SessionID: c.session.ID,
		Sender:    sender,
		Content:   content,
		Category:  category,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	c.messages = append(c.messages, msg)
	return msg
}
