package domain

import (
	"context"
	"encoding/json"
)

// Document is an ingestion input. Content falls back to Text.
type Document struct {
	ID        json.RawMessage `json:"id,omitempty"`
	Content   string          `json:"content"`
	Text      string          `json:"text,omitempty"`
	Title     string          `json:"title,omitempty"`
	Source    string          `json:"source,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
}

// Body returns the text to embed
func (d Document) Body() string {
	if d.Content != "" {
		return d.Content
	}
	return d.Text
}

// VectorPoint is a single entry written to the vector index
type VectorPoint struct {
	ID      string
	Vector  []float32
	Payload map[string]any
}

// SearchHit is a nearest-neighbour result
type SearchHit struct {
	ID        string  `json:"id"`
	Score     float32 `json:"score"`
	Content   string  `json:"content"`
	Title     string  `json:"title,omitempty"`
	Source    string  `json:"source,omitempty"`
	Timestamp string  `json:"timestamp,omitempty"`
}

// CollectionInfo describes the vector collection
type CollectionInfo struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	VectorsCount uint64 `json:"vectorsCount"`
	PointsCount  uint64 `json:"pointsCount"`
}

// IngestFailure records a document that could not be ingested
type IngestFailure struct {
	Index int    `json:"index"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error"`
}

// IngestResult accumulates the outcome of an ingestion batch
type IngestResult struct {
	Ingested int             `json:"ingested"`
	Failed   int             `json:"failed"`
	IDs      []string        `json:"ids,omitempty"`
	Failures []IngestFailure `json:"failures,omitempty"`
}

// IngestRequest is the body of POST /api/rag/ingest
type IngestRequest struct {
	Documents []Document `json:"documents" validate:"required"`
}

// SearchRequest is the body of POST /api/rag/search
type SearchRequest struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit,omitempty" validate:"omitempty,min=1"`
}

// VectorIndex stores and searches embedded documents
type VectorIndex interface {
	Upsert(ctx context.Context, points []VectorPoint) error
	Search(ctx context.Context, vector []float32, limit int) ([]SearchHit, error)
	Info(ctx context.Context) (*CollectionInfo, error)
}
