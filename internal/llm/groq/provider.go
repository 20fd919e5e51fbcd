package groq

import (
	"github.com/Rrens/rag-chatbot/internal/config"
	"github.com/Rrens/rag-chatbot/internal/llm/openai"
)

const (
	baseURL      = "https://api.groq.com/openai/v1"
	defaultModel = "llama-3.1-8b-instant"
)

// NewProvider creates a Groq provider over its OpenAI-compatible API
func NewProvider(cfg config.OpenAICompatConfig, llmCfg config.LLMConfig) *openai.Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = baseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return openai.NewProvider("groq", cfg, llmCfg)
}
