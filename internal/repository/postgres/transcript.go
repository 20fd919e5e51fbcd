package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Rrens/rag-chatbot/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TranscriptRepository implements domain.TranscriptRepository
type TranscriptRepository struct {
	pool *pgxpool.Pool
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(pool *pgxpool.Pool) *TranscriptRepository {
	return &TranscriptRepository{pool: pool}
}

// Record upserts the session row and appends turns in one transaction
func (r *TranscriptRepository) Record(ctx context.Context, meta domain.SessionMetadata, turns []domain.ChatTurn) error {
	if meta.SessionID == "" {
		return fmt.Errorf("transcript: session id is required")
	}
	startedAt := meta.CreatedAt
	if startedAt.IsZero() {
		startedAt = time.Now().UTC()
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO chat_sessions (id, characteristic, service_type, started_at, message_count)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET message_count = chat_sessions.message_count + EXCLUDED.message_count,
		    service_type = EXCLUDED.service_type,
		    ended_at = NULL
	`, meta.SessionID, meta.Characteristic, meta.ServiceType, startedAt, len(turns))
	if err != nil {
		return fmt.Errorf("failed to upsert session: %w", err)
	}

	batch := &pgx.Batch{}
	now := time.Now().UTC()
	for i, t := range turns {
		batch.Queue(`
			INSERT INTO chat_transcripts (session_id, role, content, created_at)
			VALUES ($1, $2, $3, $4)
		`, meta.SessionID, t.Role, t.Content, now.Add(time.Duration(i)*time.Microsecond))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert transcript: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transcript: %w", err)
	}
	return nil
}

// EndSession stamps ended_at; unknown sessions are ignored
func (r *TranscriptRepository) EndSession(ctx context.Context, sessionID string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE chat_sessions SET ended_at = NOW()
		WHERE id = $1 AND ended_at IS NULL
	`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

// Stats aggregates archive totals and per-provider session counts
func (r *TranscriptRepository) Stats(ctx context.Context) (*domain.UsageStats, error) {
	stats := &domain.UsageStats{APIUsage: make(map[string]int64)}

	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE ended_at IS NULL),
			COALESCE(SUM(message_count), 0)
		FROM chat_sessions
	`).Scan(&stats.TotalSessions, &stats.ActiveSessions, &stats.TotalMessages)
	if err != nil {
		return nil, fmt.Errorf("failed to query session totals: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
		SELECT service_type, COUNT(*)
		FROM chat_sessions
		GROUP BY service_type
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query provider usage: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var service string
		var count int64
		if err := rows.Scan(&service, &count); err != nil {
			return nil, fmt.Errorf("failed to scan provider usage: %w", err)
		}
		stats.APIUsage[service] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read provider usage: %w", err)
	}

	return stats, nil
}

var _ domain.TranscriptRepository = (*TranscriptRepository)(nil)
