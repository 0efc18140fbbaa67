package stream

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	chatService "github.com/zhouzirui/calm-companion/backend/internal/service/chat"
	"github.com/zhouzirui/calm-companion/backend/pkg/utils"
)

// Handler streams rule replies token by token via Server-Sent Events.
type Handler struct {
	chatSvc *chatService.Service
}

// New creates a new stream handler
func New(chatSvc *chatService.Service) *Handler {
	return &Handler{chatSvc: chatSvc}
}

// RegisterRoutes 注册流式路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

// StreamResponse represents a streaming response chunk
type StreamResponse struct {
	SessionID  string `json:"sessionId,omitempty"`
	Content    string `json:"content,omitempty"`
	Category   string `json:"category,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
	MessageID  string `json:"messageId,omitempty"`
	Finished   bool   `json:"finished,omitempty"`
	Error      string `json:"error,omitempty"`
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	query := r.URL.Query()
	if !query.Has("message") {
		utils.RespondError(w, http.StatusBadRequest, "message query parameter is required")
		return
	}

	if err := h.HandleStreamRequest(r.Context(), w, sessionID, query.Get("message")); err != nil {
		log.Printf("[stream] session=%s: %v", sessionID, err)
	}
}

// HandleStreamRequest routes userMessage and streams the reply. Errors that
// happen before the stream opens are written as JSON responses.
func (h *Handler) HandleStreamRequest(ctx context.Context, w http.ResponseWriter, sessionID, userMessage string) error {
	message, tokens, err := h.chatSvc.StreamRespond(ctx, sessionID, userMessage)
	switch {
	case errors.Is(err, chatService.ErrSessionNotFound):
		utils.RespondError(w, http.StatusNotFound, err.Error())
		return err
	case errors.Is(err, chatService.ErrConversationBusy):
		utils.RespondError(w, http.StatusConflict, err.Error())
		return err
	case err != nil:
		utils.RespondError(w, http.StatusInternalServerError, "streaming failed")
		return err
	}

	sse, err := utils.NewSSEWriter(w)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return err
	}

	start := StreamResponse{
		SessionID:  sessionID,
		Category:   message.Category,
		Suggestion: message.Suggestion,
		MessageID:  message.ID,
	}
	if err := sse.Event("start", start); err != nil {
		return err
	}

	for token, err := range tokens {
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Printf("[stream] client left session=%s", sessionID)
				return nil
			}
			_ = sse.Event("error", StreamResponse{SessionID: sessionID, Error: err.Error()})
			return err
		}
		if err := sse.Event("delta", StreamResponse{SessionID: sessionID, Content: token}); err != nil {
			return err
		}
	}

	if err := sse.Event("message", message); err != nil {
		return err
	}
	if err := sse.Event("end", StreamResponse{SessionID: sessionID, Finished: true}); err != nil {
		return err
	}

	log.Printf("[stream] completed response for session=%s category=%s", sessionID, message.Category)
	return nil
}
