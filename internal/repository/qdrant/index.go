package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Rrens/rag-chatbot/internal/config"
	"github.com/Rrens/rag-chatbot/internal/domain"
	"github.com/qdrant/go-client/qdrant"
	"github.com/rs/zerolog/log"
)

const defaultGRPCPort = 6334

// Index implements domain.VectorIndex for a single Qdrant collection
type Index struct {
	client     *qdrant.Client
	collection string
	dimension  uint64
}

// New connects to the Qdrant server named by cfg.URL
func New(cfg config.QdrantConfig) (*Index, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}

	host, port, useTLS, err := parseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	return &Index{
		client:     client,
		collection: cfg.Collection,
		dimension:  uint64(cfg.Dimension),
	}, nil
}

// parseURL accepts "host", "host:port" or a full http(s) URL
func parseURL(raw string) (string, int, bool, error) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, fmt.Errorf("failed to parse qdrant url: %w", err)
	}
	if u.Hostname() == "" {
		return "", 0, false, fmt.Errorf("qdrant url has no host: %q", raw)
	}

	port := defaultGRPCPort
	if u.Port() != "" {
		p, err := strconv.Atoi(u.Port())
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid port: %w", err)
		}
		port = p
	}

	return u.Hostname(), port, u.Scheme == "https", nil
}

// EnsureCollection creates the collection with cosine distance when it does not exist
func (i *Index) EnsureCollection(ctx context.Context) error {
	exists, err := i.client.CollectionExists(ctx, i.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return nil
	}

	err = i.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: i.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     i.dimension,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", i.collection, err)
	}

	log.Info().Str("collection", i.collection).Uint64("dimension", i.dimension).Msg("Created vector collection")
	return nil
}

// Upsert writes points in one request and waits for them to be applied
func (i *Index) Upsert(ctx context.Context, points []domain.VectorPoint) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		payload, err := qdrant.TryValueMap(p.Payload)
		if err != nil {
			return fmt.Errorf("invalid payload for point %s: %w", p.ID, err)
		}
		structs = append(structs, &qdrant.PointStruct{
			Id:      PointID(p.ID),
			Vectors: qdrant.NewVectors(p.Vector...),
			Payload: payload,
		})
	}

	wait := true
	_, err := i.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: i.collection,
		Wait:           &wait,
		Points:         structs,
	})
	if err != nil {
		return fmt.Errorf("qdrant upsert failed: %w", err)
	}
	return nil
}

// Search returns the nearest points with payload only
func (i *Index) Search(ctx context.Context, vector []float32, limit int) ([]domain.SearchHit, error) {
	limitUint64 := uint64(limit)
	points, err := i.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: i.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limitUint64,
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(false),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	hits := make([]domain.SearchHit, 0, len(points))
	for _, point := range points {
		hits = append(hits, HitFromPoint(point))
	}
	return hits, nil
}

// Info reports collection status and counts
func (i *Index) Info(ctx context.Context) (*domain.CollectionInfo, error) {
	info, err := i.client.GetCollectionInfo(ctx, i.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection info: %w", err)
	}

	return &domain.CollectionInfo{
		Name:         i.collection,
		Status:       strings.ToLower(info.GetStatus().String()),
		VectorsCount: info.GetIndexedVectorsCount(),
		PointsCount:  info.GetPointsCount(),
	}, nil
}

// Health checks that the server answers
func (i *Index) Health(ctx context.Context) error {
	if _, err := i.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant health check failed: %w", err)
	}
	return nil
}

// Close implements io.Closer
func (i *Index) Close() error {
	return i.client.Close()
}

// PointID maps an unsigned integer string to a numeric id and anything else to a UUID id
func PointID(id string) *qdrant.PointId {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return qdrant.NewIDNum(n)
	}
	return qdrant.NewID(id)
}

// HitFromPoint converts a scored point into a search hit
func HitFromPoint(point *qdrant.ScoredPoint) domain.SearchHit {
	hit := domain.SearchHit{Score: point.GetScore()}

	if point.Id != nil {
		if uuid := point.Id.GetUuid(); uuid != "" {
			hit.ID = uuid
		} else {
			hit.ID = strconv.FormatUint(point.Id.GetNum(), 10)
		}
	}

	for k, v := range point.GetPayload() {
		switch k {
		case "content":
			hit.Content = v.GetStringValue()
		case "title":
			hit.Title = v.GetStringValue()
		case "source":
			hit.Source = v.GetStringValue()
		case "timestamp":
			hit.Timestamp = v.GetStringValue()
		case "doc_id":
			if s := v.GetStringValue(); s != "" {
				hit.ID = s
			}
		}
	}
	return hit
}

var _ domain.VectorIndex = (*Index)(nil)
