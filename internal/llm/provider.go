package llm

import (
	"context"

	"github.com/Rrens/rag-chatbot/internal/domain"
)

// Request contains everything a provider needs for one completion
type Request struct {
	APIKey       string
	SystemPrompt string
	History      []domain.ChatTurn
	Message      string
	Model        string
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// DefaultModel returns the model used when the request names none
	DefaultModel() string

	// Generate returns the assistant reply text
	Generate(ctx context.Context, req Request) (string, error)

	// ValidateKey calls a read-only endpoint with the key.
	// It returns (false, nil) when the provider rejects the key and a
	// non-nil error when the outcome is ambiguous.
	ValidateKey(ctx context.Context, apiKey string) (bool, error)
}
