package handler

import (
	"context"
	"net/http"

	"github.com/Rrens/rag-chatbot/internal/api/response"
	"github.com/Rrens/rag-chatbot/internal/domain"
)

// KeyValidator checks a provider key
type KeyValidator interface {
	Validate(ctx context.Context, apiKey, serviceType string) bool
}

// KeyHandler handles provider key validation
type KeyHandler struct {
	keys KeyValidator
}

// NewKeyHandler creates a new key handler
func NewKeyHandler(keys KeyValidator) *KeyHandler {
	return &KeyHandler{keys: keys}
}

// Validate handles POST /api/validate-key. Unknown service types are
// reported as invalid rather than rejected.
func (h *KeyHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req domain.ValidateKeyRequest
	if !decodeAndValidate(w, r, &req, "API key and service type are required") {
		return
	}

	response.OK(w, domain.ValidateKeyResponse{
		Valid:   h.keys.Validate(r.Context(), req.APIKey, req.ServiceType),
		Service: req.ServiceType,
	})
}
