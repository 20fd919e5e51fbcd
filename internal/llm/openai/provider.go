package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Rrens/rag-chatbot/internal/config"
	"github.com/Rrens/rag-chatbot/internal/domain"
	"github.com/Rrens/rag-chatbot/internal/llm"
	"github.com/rs/zerolog/log"
	goopenai "github.com/sashabaranov/go-openai"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

// Provider implements llm.Provider for any OpenAI-compatible chat completions API
type Provider struct {
	name        string
	baseURL     string
	model       string
	temperature float32
	maxTokens   int
	client      *http.Client
}

// NewProvider creates a provider named name that talks to cfg.BaseURL
func NewProvider(name string, cfg config.OpenAICompatConfig, llmCfg config.LLMConfig) *Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	timeout := llmCfg.RequestTimeout
	if timeout <= 0 {
		timeout = llm.DefaultTimeout
	}
	return &Provider{
		name:        name,
		baseURL:     cfg.BaseURL,
		model:       cfg.Model,
		temperature: llmCfg.Temperature,
		maxTokens:   llmCfg.MaxTokens,
		client:      &http.Client{Timeout: timeout},
	}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return p.name
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return p.model
}

func (p *Provider) newClient(apiKey string) *goopenai.Client {
	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = p.baseURL
	cfg.HTTPClient = p.client
	return goopenai.NewClientWithConfig(cfg)
}

// Generate sends the conversation and returns the first choice's content
func (p *Provider) Generate(ctx context.Context, req llm.Request) (string, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}

	start := time.Now()
	resp, err := p.newClient(req.APIKey).CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       model,
		Messages:    BuildMessages(req.SystemPrompt, req.History, req.Message),
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from %s", p.name)
	}

	log.Debug().
		Str("provider", p.name).
		Str("model", model).
		Int("tokens", resp.Usage.TotalTokens).
		Dur("latency", time.Since(start)).
		Msg("chat completion")

	return resp.Choices[0].Message.Content, nil
}

// ValidateKey lists models with the key
func (p *Provider) ValidateKey(ctx context.Context, apiKey string) (bool, error) {
	_, err := p.newClient(apiKey).ListModels(ctx)
	if err == nil {
		return true, nil
	}
	if isAuthFailure(err) {
		return false, nil
	}
	return false, fmt.Errorf("list models failed: %w", err)
}

// BuildMessages prepends the system prompt and drops stored system turns
func BuildMessages(systemPrompt string, history []domain.ChatTurn, message string) []goopenai.ChatCompletionMessage {
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(history)+2)
	msgs = append(msgs, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleSystem,
		Content: systemPrompt,
	})
	for _, turn := range domain.WithoutSystemTurns(history) {
		msgs = append(msgs, goopenai.ChatCompletionMessage{
			Role:    string(turn.Role),
			Content: turn.Content,
		})
	}
	msgs = append(msgs, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: message,
	})
	return msgs
}

func isAuthFailure(err error) bool {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusUnauthorized || apiErr.HTTPStatusCode == http.StatusForbidden
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusUnauthorized || reqErr.HTTPStatusCode == http.StatusForbidden
	}
	return false
}
