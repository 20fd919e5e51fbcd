package deepseek

import (
	"github.com/Rrens/rag-chatbot/internal/config"
	"github.com/Rrens/rag-chatbot/internal/llm/openai"
)

const (
	baseURL      = "https://api.deepseek.com/v1"
	defaultModel = "deepseek-chat"
)

// NewProvider creates a DeepSeek provider over its OpenAI-compatible API
func NewProvider(cfg config.OpenAICompatConfig, llmCfg config.LLMConfig) *openai.Provider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = baseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	return openai.NewProvider("deepseek", cfg, llmCfg)
}
