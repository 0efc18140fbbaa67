package ws

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	chatservice "github.com/zhouzirui/calm-companion/backend/internal/service/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler WebSocket对话处理器
type Handler struct {
	chatSvc  *chatservice.Service
	upgrader websocket.Upgrader
}

// New 创建WebSocket处理器. checkOrigin nil accepts every origin.
func New(chatSvc *chatservice.Service, checkOrigin func(r *http.Request) bool) *Handler {
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Handler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin:     checkOrigin,
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes 注册WebSocket路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

// Inbound frame types.
const (
	TypeMessage  = "message"
	TypeComplete = "complete"
)

// Outbound frame types.
const (
	TypeConnected = "connected"
	TypeStart     = "start"
	TypeDelta     = "delta"
	TypeEnd       = "end"
	TypeResult    = "result"
	TypeError     = "error"
)

// InboundMessage is a client frame. Text carries the user message for
// "message" frames and the prompt for "complete" frames.
type InboundMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// OutgoingMessage is a server frame.
type OutgoingMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if _, err := h.chatSvc.GetSession(r.Context(), sessionID); err != nil {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[ws] new connection for session: %s", sessionID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	go pingLoop(ctx, conn)

	c := &connection{conn: conn, sessionID: sessionID}
	if err := c.send(TypeConnected, nil); err != nil {
		return
	}

	for {
		var msg InboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))

		if err := h.handleMessage(ctx, c, msg); err != nil {
			log.Printf("[ws] session=%s: %v", sessionID, err)
			return
		}
	}
}

// handleMessage answers one frame. A returned error means the connection is
// no longer writable.
func (h *Handler) handleMessage(ctx context.Context, c *connection, msg InboundMessage) error {
	switch msg.Type {
	case TypeMessage:
		return h.streamReply(ctx, c, msg.Text)
	case TypeComplete:
		result, err := h.chatSvc.Complete(ctx, c.sessionID, msg.Text)
		if err != nil {
			return c.sendError(err)
		}
		return c.send(TypeResult, result)
	default:
		return c.send(TypeError, map[string]string{"message": "unsupported message type: " + msg.Type})
	}
}

func (h *Handler) streamReply(ctx context.Context, c *connection, text string) error {
	message, tokens, err := h.chatSvc.StreamRespond(ctx, c.sessionID, text)
	if err != nil {
		return c.sendError(err)
	}

	if err := c.send(TypeStart, map[string]string{
		"messageId":  message.ID,
		"category":   message.Category,
		"suggestion": message.Suggestion,
	}); err != nil {
		return err
	}

	for token, err := range tokens {
		if err != nil {
			return err
		}
		if err := c.send(TypeDelta, map[string]string{"content": token}); err != nil {
			return err
		}
	}

	return c.send(TypeEnd, message)
}

type connection struct {
	conn      *websocket.Conn
	sessionID string
}

func (c *connection) send(frameType string, data any) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(OutgoingMessage{
		Type:      frameType,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

// sendError reports a service error to the client and keeps the connection.
func (c *connection) sendError(err error) error {
	code := "internal"
	switch {
	case errors.Is(err, chatservice.ErrSessionNotFound):
		code = "session_not_found"
	case errors.Is(err, chatservice.ErrConversationBusy):
		code = "busy"
	}
	return c.send(TypeError, map[string]string{"code": code, "message": err.Error()})
}

// pingLoop 定期发送ping消息. WriteControl may run alongside WriteJSON.
func pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}
