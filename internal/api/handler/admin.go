package handler

import (
	"context"
	"net/http"

	"github.com/Rrens/rag-chatbot/internal/api/response"
	"github.com/Rrens/rag-chatbot/internal/domain"
	"github.com/rs/zerolog/log"
)

// StatsProvider reports archived usage
type StatsProvider interface {
	Stats(ctx context.Context) (*domain.UsageStats, error)
}

// KeyCacheFlusher invalidates cached key validation outcomes
type KeyCacheFlusher interface {
	FlushKeyCache(ctx context.Context) (int64, error)
}

// FlushResponse is the body of DELETE /api/admin/key-cache
type FlushResponse struct {
	Message string `json:"message"`
	Deleted int64  `json:"deleted"`
}

type AdminHandler struct {
	stats    StatsProvider
	keyCache KeyCacheFlusher
}

func NewAdminHandler(stats StatsProvider, keyCache KeyCacheFlusher) *AdminHandler {
	return &AdminHandler{stats: stats, keyCache: keyCache}
}

// Stats handles GET /api/admin/stats
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, stats)
}

// FlushKeyCache handles DELETE /api/admin/key-cache
func (h *AdminHandler) FlushKeyCache(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.keyCache.FlushKeyCache(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Info().Int64("deleted", deleted).Msg("Key validation cache flushed")
	response.OK(w, FlushResponse{Message: "Key cache flushed", Deleted: deleted})
}
