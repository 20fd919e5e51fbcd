package domain

import (
	"context"
	"time"
)

// Role represents the sender of a chat turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ChatTurn is a single message in a session's history
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Characteristic selects the system prompt persona
type Characteristic string

const (
	CharacteristicNews          Characteristic = "news"
	CharacteristicSales         Characteristic = "sales"
	CharacteristicCybersecurity Characteristic = "cybersecurity"
	CharacteristicDefault       Characteristic = "default"
)

// ServiceType names a supported LLM provider
type ServiceType string

const (
	ServiceGroq     ServiceType = "groq"
	ServiceGemini   ServiceType = "gemini"
	ServiceOpenAI   ServiceType = "openai"
	ServiceDeepSeek ServiceType = "deepseek"
)

// ServiceTypes lists every provider the gateway can talk to
var ServiceTypes = []ServiceType{ServiceGroq, ServiceGemini, ServiceOpenAI, ServiceDeepSeek}

// Valid reports whether s is one of the supported providers
func (s ServiceType) Valid() bool {
	for _, t := range ServiceTypes {
		if s == t {
			return true
		}
	}
	return false
}

// SessionMetadata is stored alongside a session's history
type SessionMetadata struct {
	SessionID      string         `json:"sessionId,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	Characteristic Characteristic `json:"characteristic"`
	ServiceType    ServiceType    `json:"serviceType"`
}

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Message        string `json:"message" validate:"required,max=1000"`
	SessionID      string `json:"sessionId,omitempty" validate:"omitempty,max=128"`
	APIKey         string `json:"apiKey" validate:"required"`
	ServiceType    string `json:"serviceType" validate:"required,oneof=groq gemini openai deepseek"`
	Characteristic string `json:"characteristic,omitempty" validate:"omitempty,oneof=news sales cybersecurity default"`
}

// ChatResponse is returned after a successful chat turn
type ChatResponse struct {
	Response  string     `json:"response"`
	SessionID string     `json:"sessionId"`
	History   []ChatTurn `json:"history"`
}

// ValidateKeyRequest is the body of POST /api/validate-key
type ValidateKeyRequest struct {
	APIKey      string `json:"apiKey" validate:"required"`
	ServiceType string `json:"serviceType" validate:"required"`
}

// ValidateKeyResponse reports the outcome of a key check
type ValidateKeyResponse struct {
	Valid   bool   `json:"valid"`
	Service string `json:"service"`
}

// ConversationStore persists capped chat history and session metadata
type ConversationStore interface {
	Get(ctx context.Context, sessionID string) ([]ChatTurn, error)
	Put(ctx context.Context, sessionID string, turns []ChatTurn, ttl time.Duration) error
	Append(ctx context.Context, sessionID string, turns []ChatTurn, limit int, ttl time.Duration) ([]ChatTurn, error)
	Delete(ctx context.Context, sessionID string) error
	GetMetadata(ctx context.Context, sessionID string) (*SessionMetadata, error)
	PutMetadata(ctx context.Context, sessionID string, meta *SessionMetadata, ttl time.Duration) error
}

// TruncateHistory keeps the newest limit turns
func TruncateHistory(turns []ChatTurn, limit int) []ChatTurn {
	if limit <= 0 || len(turns) <= limit {
		return turns
	}
	return turns[len(turns)-limit:]
}

// WithoutSystemTurns drops system-role turns from history
func WithoutSystemTurns(turns []ChatTurn) []ChatTurn {
	out := make([]ChatTurn, 0, len(turns))
	for _, t := range turns {
		if t.Role == RoleSystem {
			continue
		}
		out = append(out, t)
	}
	return out
}
