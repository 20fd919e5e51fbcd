package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Rrens/rag-chatbot/internal/domain"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

func (e entry[T]) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// HistoryStore implements domain.ConversationStore in process memory.
// Expired entries are dropped lazily on access.
type HistoryStore struct {
	mu       sync.Mutex
	history  map[string]entry[[]domain.ChatTurn]
	metadata map[string]entry[domain.SessionMetadata]
	now      func() time.Time
}

// NewHistoryStore creates an empty in-memory store
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{
		history:  make(map[string]entry[[]domain.ChatTurn]),
		metadata: make(map[string]entry[domain.SessionMetadata]),
		now:      time.Now,
	}
}

func (s *HistoryStore) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return s.now().Add(ttl)
}

func (s *HistoryStore) Get(ctx context.Context, sessionID string) ([]domain.ChatTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.history[sessionID]
	if !ok || e.expired(s.now()) {
		delete(s.history, sessionID)
		return []domain.ChatTurn{}, nil
	}
	return append([]domain.ChatTurn{}, e.value...), nil
}

func (s *HistoryStore) Put(ctx context.Context, sessionID string, turns []domain.ChatTurn, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history[sessionID] = entry[[]domain.ChatTurn]{
		value:     append([]domain.ChatTurn{}, turns...),
		expiresAt: s.expiry(ttl),
	}
	return nil
}

func (s *HistoryStore) Append(ctx context.Context, sessionID string, turns []domain.ChatTurn, limit int, ttl time.Duration) ([]domain.ChatTurn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var current []domain.ChatTurn
	if e, ok := s.history[sessionID]; ok && !e.expired(s.now()) {
		current = e.value
	}

	next := make([]domain.ChatTurn, 0, len(current)+len(turns))
	next = append(next, current...)
	next = append(next, turns...)
	next = domain.TruncateHistory(next, limit)

	s.history[sessionID] = entry[[]domain.ChatTurn]{value: next, expiresAt: s.expiry(ttl)}
	return append([]domain.ChatTurn{}, next...), nil
}

func (s *HistoryStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.history, sessionID)
	delete(s.metadata, sessionID)
	return nil
}

func (s *HistoryStore) GetMetadata(ctx context.Context, sessionID string) (*domain.SessionMetadata, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.metadata[sessionID]
	if !ok || e.expired(s.now()) {
		delete(s.metadata, sessionID)
		return nil, nil
	}
	meta := e.value
	return &meta, nil
}

func (s *HistoryStore) PutMetadata(ctx context.Context, sessionID string, meta *domain.SessionMetadata, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.metadata[sessionID] = entry[domain.SessionMetadata]{value: *meta, expiresAt: s.expiry(ttl)}
	return nil
}

var _ domain.ConversationStore = (*HistoryStore)(nil)
