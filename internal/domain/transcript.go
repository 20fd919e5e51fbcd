package domain

import (
	"context"
	"time"
)

// ArchivedSession is a row of the transcript archive
type ArchivedSession struct {
	ID             string         `json:"id"`
	Characteristic Characteristic `json:"characteristic"`
	ServiceType    ServiceType    `json:"serviceType"`
	StartedAt      time.Time      `json:"startedAt"`
	EndedAt        *time.Time     `json:"endedAt,omitempty"`
	MessageCount   int            `json:"messageCount"`
}

// UsageStats summarises archived activity for the admin dashboard
type UsageStats struct {
	TotalSessions  int64            `json:"totalSessions"`
	ActiveSessions int64            `json:"activeSessions"`
	TotalMessages  int64            `json:"totalMessages"`
	APIUsage       map[string]int64 `json:"apiUsage"`
}

// TranscriptRepository archives chat turns beyond the cache TTL
type TranscriptRepository interface {
	Record(ctx context.Context, meta SessionMetadata, turns []ChatTurn) error
	EndSession(ctx context.Context, sessionID string) error
	Stats(ctx context.Context) (*UsageStats, error)
}
