package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Rrens/rag-chatbot/internal/api/response"
	"github.com/Rrens/rag-chatbot/internal/domain"
)

// RAGService ingests and searches documents
type RAGService interface {
	Ingest(ctx context.Context, docs []domain.Document) (*domain.IngestResult, error)
	Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)
	CollectionInfo(ctx context.Context) (*domain.CollectionInfo, error)
}

// RAGHandler handles document ingestion and search
type RAGHandler struct {
	ragService RAGService
}

// NewRAGHandler creates a new RAG handler
func NewRAGHandler(ragService RAGService) *RAGHandler {
	return &RAGHandler{ragService: ragService}
}

type ingestResponse struct {
	Message  string                 `json:"message"`
	Ingested int                    `json:"ingested"`
	Failed   int                    `json:"failed"`
	IDs      []string               `json:"ids,omitempty"`
	Failures []domain.IngestFailure `json:"failures,omitempty"`
}

// Ingest handles POST /api/rag/ingest
func (h *RAGHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req domain.IngestRequest
	if !decodeAndValidate(w, r, &req, "Documents array is required") {
		return
	}

	result, err := h.ragService.Ingest(r.Context(), req.Documents)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, ingestResponse{
		Message:  fmt.Sprintf("Successfully ingested %d documents", result.Ingested),
		Ingested: result.Ingested,
		Failed:   result.Failed,
		IDs:      result.IDs,
		Failures: result.Failures,
	})
}

// Search handles POST /api/rag/search
func (h *RAGHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req domain.SearchRequest
	if !decodeAndValidate(w, r, &req, "Query is required") {
		return
	}

	hits, err := h.ragService.Search(r.Context(), req.Query, req.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if hits == nil {
		hits = []domain.SearchHit{}
	}

	response.OK(w, map[string]any{"results": hits})
}

// CollectionInfo handles GET /api/rag/collection-info
func (h *RAGHandler) CollectionInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.ragService.CollectionInfo(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.OK(w, info)
}
