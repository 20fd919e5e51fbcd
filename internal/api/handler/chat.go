package handler

import (
	"context"
	"net/http"

	"github.com/Rrens/rag-chatbot/internal/api/response"
	"github.com/Rrens/rag-chatbot/internal/domain"
)

// ChatService runs chat turns and manages session history
type ChatService interface {
	Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error)
	History(ctx context.Context, sessionID string) ([]domain.ChatTurn, error)
	Clear(ctx context.Context, sessionID string) error
}

// ChatHandler handles chat endpoints
type ChatHandler struct {
	chatService ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req domain.ChatRequest
	if !decodeAndValidate(w, r, &req, "Invalid chat request") {
		return
	}

	resp, err := h.chatService.Chat(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, resp)
}
