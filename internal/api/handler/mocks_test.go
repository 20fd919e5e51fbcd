package handler_test

import (
	"context"

	"github.com/Rrens/rag-chatbot/internal/domain"
	"github.com/stretchr/testify/mock"
)

// MockChatService mocks handler.ChatService
type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) Chat(ctx context.Context, req domain.ChatRequest) (*domain.ChatResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChatResponse), args.Error(1)
}

func (m *MockChatService) History(ctx context.Context, sessionID string) ([]domain.ChatTurn, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChatTurn), args.Error(1)
}

func (m *MockChatService) Clear(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

// MockKeyValidator mocks handler.KeyValidator
type MockKeyValidator struct {
	mock.Mock
}

func (m *MockKeyValidator) Validate(ctx context.Context, apiKey, serviceType string) bool {
	args := m.Called(ctx, apiKey, serviceType)
	return args.Bool(0)
}

// MockRAGService mocks handler.RAGService
type MockRAGService struct {
	mock.Mock
}

func (m *MockRAGService) Ingest(ctx context.Context, docs []domain.Document) (*domain.IngestResult, error) {
	args := m.Called(ctx, docs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestResult), args.Error(1)
}

func (m *MockRAGService) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SearchHit), args.Error(1)
}

func (m *MockRAGService) CollectionInfo(ctx context.Context) (*domain.CollectionInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CollectionInfo), args.Error(1)
}

// MockStatsProvider mocks handler.StatsProvider
type MockStatsProvider struct {
	mock.Mock
}

func (m *MockStatsProvider) Stats(ctx context.Context) (*domain.UsageStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.UsageStats), args.Error(1)
}

// MockKeyCacheFlusher mocks handler.KeyCacheFlusher
type MockKeyCacheFlusher struct {
	mock.Mock
}

func (m *MockKeyCacheFlusher) FlushKeyCache(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
