package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Rrens/rag-chatbot/internal/config"
	"github.com/Rrens/rag-chatbot/internal/domain"
	"github.com/Rrens/rag-chatbot/internal/embedding"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultContextLimit = 3
	defaultSearchLimit  = 5
	defaultMaxLimit     = 50
)

// RAGService embeds text and talks to the vector index
type RAGService struct {
	embedder         embedding.Embedder
	index            domain.VectorIndex
	searchLimit      int
	maxLimit         int
	retrievalTimeout time.Duration
	now              func() time.Time
}

// NewRAGService creates a new RAG service
func NewRAGService(embedder embedding.Embedder, index domain.VectorIndex, cfg config.RAGConfig) *RAGService {
	s := &RAGService{
		embedder:         embedder,
		index:            index,
		searchLimit:      cfg.SearchLimit,
		maxLimit:         cfg.MaxLimit,
		retrievalTimeout: cfg.RetrievalTimeout,
		now:              time.Now,
	}
	if s.searchLimit <= 0 {
		s.searchLimit = defaultSearchLimit
	}
	if s.maxLimit <= 0 {
		s.maxLimit = defaultMaxLimit
	}
	return s
}

// RetrieveContext returns numbered source blocks for the nearest documents.
// Any failure yields an empty string so the chat turn can proceed without context.
func (s *RAGService) RetrieveContext(ctx context.Context, query string, limit int) string {
	if limit <= 0 {
		limit = defaultContextLimit
	}
	if s.retrievalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.retrievalTimeout)
		defer cancel()
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		log.Warn().Err(err).Msg("RAG retrieval skipped: embedding failed")
		return ""
	}

	hits, err := s.index.Search(ctx, vector, limit)
	if err != nil {
		log.Warn().Err(err).Msg("RAG retrieval skipped: search failed")
		return ""
	}

	return FormatContext(hits)
}

// FormatContext renders hits in descending score order
func FormatContext(hits []domain.SearchHit) string {
	sorted := make([]domain.SearchHit, len(hits))
	copy(sorted, hits)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	var b strings.Builder
	for i, hit := range sorted {
		title := hit.Title
		if title == "" {
			title = "Unknown"
		}
		fmt.Fprintf(&b, "[Source %d: %s]\n%s\n\n", i+1, title, hit.Content)
	}
	return b.String()
}

// Ingest embeds each document and upserts the successful ones in one batch.
// Per-document failures are collected in the result, never dropped.
func (s *RAGService) Ingest(ctx context.Context, docs []domain.Document) (*domain.IngestResult, error) {
	result := &domain.IngestResult{}
	points := make([]domain.VectorPoint, 0, len(docs))

	for i, doc := range docs {
		id, origID := resolvePointID(doc.ID)

		vector, err := s.embedder.Embed(ctx, doc.Body())
		if err != nil {
			log.Warn().Err(err).Int("index", i).Str("id", id).Msg("Skipping document")
			result.Failures = append(result.Failures, domain.IngestFailure{
				Index: i,
				ID:    firstNonEmpty(origID, id),
				Error: err.Error(),
			})
			continue
		}

		points = append(points, domain.VectorPoint{
			ID:      id,
			Vector:  vector,
			Payload: s.payload(doc, origID),
		})
		result.IDs = append(result.IDs, firstNonEmpty(origID, id))
	}

	if len(points) > 0 {
		if err := s.index.Upsert(ctx, points); err != nil {
			return nil, fmt.Errorf("failed to store documents: %w", err)
		}
	}

	result.Ingested = len(points)
	result.Failed = len(result.Failures)
	return result, nil
}

func (s *RAGService) payload(doc domain.Document, origID string) map[string]any {
	source := doc.Source
	if source == "" {
		source = "unknown"
	}
	timestamp := doc.Timestamp
	if timestamp == "" {
		timestamp = s.now().UTC().Format(time.RFC3339)
	}

	payload := map[string]any{
		"content":   doc.Body(),
		"title":     doc.Title,
		"source":    source,
		"timestamp": timestamp,
	}
	if origID != "" {
		payload["doc_id"] = origID
	}
	return payload
}

// resolvePointID returns the index id and, when the caller's id had to be
// mapped, the original id to keep in the payload
func resolvePointID(raw json.RawMessage) (string, string) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return uuid.NewString(), ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// numbers and other scalars
		s = trimmed
	}
	if s == "" {
		return uuid.NewString(), ""
	}

	if u, err := uuid.Parse(s); err == nil {
		return u.String(), ""
	}
	if n, err := strconv.ParseUint(s, 10, 64); err == nil {
		return strconv.FormatUint(n, 10), ""
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(s)).String(), s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Search embeds query and returns up to limit hits
func (s *RAGService) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	if query == "" {
		return nil, &domain.ValidationError{
			Message: "Query is required",
			Fields:  map[string]string{"query": "required"},
		}
	}
	if limit <= 0 {
		limit = s.searchLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := s.index.Search(ctx, vector, limit)
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// CollectionInfo reports vector collection status
func (s *RAGService) CollectionInfo(ctx context.Context) (*domain.CollectionInfo, error) {
	return s.index.Info(ctx)
}
