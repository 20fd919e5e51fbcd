package handler

import (
	"net/http"

	"github.com/Rrens/rag-chatbot/internal/api/response"
	"github.com/go-chi/chi/v5"
)

// SessionHandler exposes stored chat history
type SessionHandler struct {
	chatService ChatService
}

func NewSessionHandler(chatService ChatService) *SessionHandler {
	return &SessionHandler{chatService: chatService}
}

// GetHistory returns history for a specific session
func (h *SessionHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		response.BadRequest(w, "Invalid session ID")
		return
	}

	history, err := h.chatService.History(r.Context(), sessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, map[string]any{"history": history})
}

// Delete clears a session's history and metadata
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if sessionID == "" {
		response.BadRequest(w, "Invalid session ID")
		return
	}

	if err := h.chatService.Clear(r.Context(), sessionID); err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, map[string]string{"message": "Session cleared successfully"})
}
