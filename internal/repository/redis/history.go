package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/rag-chatbot/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	chatKeyPrefix     = "chat:"
	historyKeySuffix  = ":history"
	metadataKeySuffix = ":metadata"
	defaultHistoryTTL = 24 * time.Hour
	maxAppendRetries  = 5
)

// ErrTooManyConflicts is returned when concurrent writers keep invalidating an append
var ErrTooManyConflicts = errors.New("conversation store: too many concurrent updates")

// HistoryStore implements domain.ConversationStore on Redis
type HistoryStore struct {
	client *Client
}

// NewHistoryStore creates a new Redis-backed conversation store
func NewHistoryStore(client *Client) *HistoryStore {
	return &HistoryStore{client: client}
}

func historyKey(sessionID string) string {
	return chatKeyPrefix + sessionID + historyKeySuffix
}

func metadataKey(sessionID string) string {
	return chatKeyPrefix + sessionID + metadataKeySuffix
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return defaultHistoryTTL
	}
	return ttl
}

// Get returns the stored turns, or an empty slice when none exist
func (s *HistoryStore) Get(ctx context.Context, sessionID string) ([]domain.ChatTurn, error) {
	data, err := s.client.rdb.Get(ctx, historyKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.ChatTurn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	return decodeTurns(data)
}

// Put overwrites the full turn list
func (s *HistoryStore) Put(ctx context.Context, sessionID string, turns []domain.ChatTurn, ttl time.Duration) error {
	data, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := s.client.rdb.Set(ctx, historyKey(sessionID), data, ttlOrDefault(ttl)).Err(); err != nil {
		return fmt.Errorf("failed to store history: %w", err)
	}
	return nil
}

// Append adds turns under WATCH and keeps the newest limit entries.
// A concurrent writer aborts the transaction and the read-modify-write is retried.
func (s *HistoryStore) Append(ctx context.Context, sessionID string, turns []domain.ChatTurn, limit int, ttl time.Duration) ([]domain.ChatTurn, error) {
	key := historyKey(sessionID)
	ttl = ttlOrDefault(ttl)

	var stored []domain.ChatTurn
	txf := func(tx *redis.Tx) error {
		current := []domain.ChatTurn{}
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if err == nil {
			if current, err = decodeTurns(data); err != nil {
				return err
			}
		}

		next := make([]domain.ChatTurn, 0, len(current)+len(turns))
		next = append(next, current...)
		next = append(next, turns...)
		next = domain.TruncateHistory(next, limit)

		encoded, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, ttl)
			return nil
		})
		if err == nil {
			stored = next
		}
		return err
	}

	for i := 0; i < maxAppendRetries; i++ {
		err := s.client.rdb.Watch(ctx, txf, key)
		if err == nil {
			return stored, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, fmt.Errorf("failed to append history: %w", err)
	}
	return nil, ErrTooManyConflicts
}

// Delete removes both the history and metadata keys
func (s *HistoryStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.rdb.Del(ctx, historyKey(sessionID), metadataKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// GetMetadata returns nil when the session has no metadata
func (s *HistoryStore) GetMetadata(ctx context.Context, sessionID string) (*domain.SessionMetadata, error) {
	data, err := s.client.rdb.Get(ctx, metadataKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata: %w", err)
	}

	var meta domain.SessionMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &meta, nil
}

// PutMetadata overwrites the session metadata
func (s *HistoryStore) PutMetadata(ctx context.Context, sessionID string, meta *domain.SessionMetadata, ttl time.Duration) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if err := s.client.rdb.Set(ctx, metadataKey(sessionID), data, ttlOrDefault(ttl)).Err(); err != nil {
		return fmt.Errorf("failed to store metadata: %w", err)
	}
	return nil
}

func decodeTurns(data []byte) ([]domain.ChatTurn, error) {
	turns := []domain.ChatTurn{}
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("failed to unmarshal history: %w", err)
	}
	return turns, nil
}

var _ domain.ConversationStore = (*HistoryStore)(nil)
