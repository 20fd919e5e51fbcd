package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Rrens/rag-chatbot/internal/domain"
)

var errArchiveDisabled = errors.New("transcript archive is not configured")

// KeyCacheFlusher drops every cached key validation outcome
type KeyCacheFlusher interface {
	FlushAll(ctx context.Context) (int64, error)
}

// AdminService exposes archive statistics and key cache maintenance
type AdminService struct {
	archive  domain.TranscriptRepository
	keyCache KeyCacheFlusher
}

// AdminOption configures an AdminService
type AdminOption func(*AdminService)

// WithStatsArchive serves usage stats from the transcript archive
func WithStatsArchive(archive domain.TranscriptRepository) AdminOption {
	return func(s *AdminService) { s.archive = archive }
}

// WithKeyCacheFlush allows operators to invalidate cached key checks
func WithKeyCacheFlush(cache KeyCacheFlusher) AdminOption {
	return func(s *AdminService) { s.keyCache = cache }
}

// NewAdminService creates a new admin service
func NewAdminService(opts ...AdminOption) *AdminService {
	s := &AdminService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Stats returns usage totals from the transcript archive
func (s *AdminService) Stats(ctx context.Context) (*domain.UsageStats, error) {
	if s.archive == nil {
		return nil, &domain.InternalError{Err: errArchiveDisabled}
	}
	stats, err := s.archive.Stats(ctx)
	if err != nil {
		return nil, &domain.InternalError{Err: fmt.Errorf("load stats: %w", err)}
	}
	return stats, nil
}

// FlushKeyCache removes cached validation outcomes and returns how many were dropped
func (s *AdminService) FlushKeyCache(ctx context.Context) (int64, error) {
	if s.keyCache == nil {
		return 0, nil
	}
	deleted, err := s.keyCache.FlushAll(ctx)
	if err != nil {
		return deleted, &domain.InternalError{Err: fmt.Errorf("flush key cache: %w", err)}
	}
	return deleted, nil
}
