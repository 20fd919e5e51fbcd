package service

import (
	"context"
	"time"

	"github.com/Rrens/rag-chatbot/internal/domain"
	"github.com/Rrens/rag-chatbot/internal/llm"
	"github.com/stretchr/testify/mock"
)

// MockConversationStore mocks domain.ConversationStore
type MockConversationStore struct {
	mock.Mock
}

func (m *MockConversationStore) Get(ctx context.Context, sessionID string) ([]domain.ChatTurn, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatTurn), args.Error(1)
}

func (m *MockConversationStore) Put(ctx context.Context, sessionID string, turns []domain.ChatTurn, ttl time.Duration) error {
	args := m.Called(ctx, sessionID, turns, ttl)
	return args.Error(0)
}

func (m *MockConversationStore) Append(ctx context.Context, sessionID string, turns []domain.ChatTurn, limit int, ttl time.Duration) ([]domain.ChatTurn, error) {
	args := m.Called(ctx, sessionID, turns, limit, ttl)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatTurn), args.Error(1)
}

func (m *MockConversationStore) Delete(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockConversationStore) GetMetadata(ctx context.Context, sessionID string) (*domain.SessionMetadata, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionMetadata), args.Error(1)
}

func (m *MockConversationStore) PutMetadata(ctx context.Context, sessionID string, meta *domain.SessionMetadata, ttl time.Duration) error {
	args := m.Called(ctx, sessionID, meta, ttl)
	return args.Error(0)
}

// MockKeyValidator mocks KeyValidator
type MockKeyValidator struct {
	mock.Mock
}

func (m *MockKeyValidator) Validate(ctx context.Context, apiKey, serviceType string) bool {
	args := m.Called(ctx, apiKey, serviceType)
	return args.Bool(0)
}

// MockResponseGenerator mocks ResponseGenerator
type MockResponseGenerator struct {
	mock.Mock
}

func (m *MockResponseGenerator) GetResponse(ctx context.Context, in llm.Input) (string, error) {
	args := m.Called(ctx, in)
	return args.String(0), args.Error(1)
}

// MockContextRetriever mocks ContextRetriever
type MockContextRetriever struct {
	mock.Mock
}

func (m *MockContextRetriever) RetrieveContext(ctx context.Context, query string, limit int) string {
	args := m.Called(ctx, query, limit)
	return args.String(0)
}

// MockTranscriptRepository mocks domain.TranscriptRepository
type MockTranscriptRepository struct {
	mock.Mock
}

func (m *MockTranscriptRepository) Record(ctx context.Context, meta domain.SessionMetadata, turns []domain.ChatTurn) error {
	args := m.Called(ctx, meta, turns)
	return args.Error(0)
}

func (m *MockTranscriptRepository) EndSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockTranscriptRepository) Stats(ctx context.Context) (*domain.UsageStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UsageStats), args.Error(1)
}

// MockVectorIndex mocks domain.VectorIndex
type MockVectorIndex struct {
	mock.Mock
}

func (m *MockVectorIndex) Upsert(ctx context.Context, points []domain.VectorPoint) error {
	args := m.Called(ctx, points)
	return args.Error(0)
}

func (m *MockVectorIndex) Search(ctx context.Context, vector []float32, limit int) ([]domain.SearchHit, error) {
	args := m.Called(ctx, vector, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchHit), args.Error(1)
}

func (m *MockVectorIndex) Info(ctx context.Context) (*domain.CollectionInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectionInfo), args.Error(1)
}

// MockEmbedder mocks embedding.Embedder
type MockEmbedder struct {
	mock.Mock
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

func (m *MockEmbedder) Dimension() int {
	return 4
}

// MockProvider mocks llm.Provider
type MockProvider struct {
	mock.Mock
	name string
}

func (m *MockProvider) Name() string         { return m.name }
func (m *MockProvider) DefaultModel() string { return "mock" }

func (m *MockProvider) Generate(ctx context.Context, req llm.Request) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockProvider) ValidateKey(ctx context.Context, apiKey string) (bool, error) {
	args := m.Called(ctx, apiKey)
	return args.Bool(0), args.Error(1)
}

// MockKeyCache mocks KeyValidationCache and KeyCacheFlusher
type MockKeyCache struct {
	mock.Mock
}

func (m *MockKeyCache) Get(ctx context.Context, service, apiKey string) (bool, bool, error) {
	args := m.Called(ctx, service, apiKey)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

func (m *MockKeyCache) Set(ctx context.Context, service, apiKey string, valid bool) error {
	args := m.Called(ctx, service, apiKey, valid)
	return args.Error(0)
}

func (m *MockKeyCache) FlushAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
