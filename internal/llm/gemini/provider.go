package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Rrens/rag-chatbot/internal/config"
	"github.com/Rrens/rag-chatbot/internal/domain"
	"github.com/Rrens/rag-chatbot/internal/llm"
	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultModel = "gemini-1.5-flash"
	roleModel    = "model"
	roleUser     = "user"
)

type Provider struct {
	model       string
	temperature float32
	maxTokens   int32
	timeout     time.Duration
	clientOpts  []option.ClientOption
}

// NewProvider creates a Gemini provider. Extra client options are applied after the caller's API key.
func NewProvider(cfg config.GeminiConfig, llmCfg config.LLMConfig, opts ...option.ClientOption) *Provider {
	timeout := llmCfg.RequestTimeout
	if timeout <= 0 {
		timeout = llm.DefaultTimeout
	}
	return &Provider{
		model:       cfg.Model,
		temperature: llmCfg.Temperature,
		maxTokens:   int32(llmCfg.MaxTokens),
		timeout:     timeout,
		clientOpts:  opts,
	}
}

func (p *Provider) newClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(apiKey)}, p.clientOpts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

func (p *Provider) Name() string {
	return string(domain.ServiceGemini)
}

func (p *Provider) DefaultModel() string {
	if p.model != "" {
		return p.model
	}
	return defaultModel
}

func (p *Provider) Generate(ctx context.Context, req llm.Request) (string, error) {
	model := req.Model
	if model == "" {
		model = p.DefaultModel()
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client, err := p.newClient(ctx, req.APIKey)
	if err != nil {
		return "", err
	}
	defer client.Close()

	generativeModel := client.GenerativeModel(model)
	generativeModel.SetTemperature(p.temperature)
	if p.maxTokens > 0 {
		generativeModel.SetMaxOutputTokens(p.maxTokens)
	}

	cs := generativeModel.StartChat()
	cs.History = BuildHistory(req.SystemPrompt, req.History)

	start := time.Now()
	resp, err := cs.SendMessage(ctx, genai.Text(req.Message))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}

	output, err := ExtractReply(resp)
	if err != nil {
		return "", err
	}

	log.Debug().
		Str("provider", p.Name()).
		Str("model", model).
		Dur("latency", time.Since(start)).
		Msg("generate content")

	return output, nil
}

// ValidateKey fetches the first page of models with the key
func (p *Provider) ValidateKey(ctx context.Context, apiKey string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	client, err := p.newClient(ctx, apiKey)
	if err != nil {
		return false, err
	}
	defer client.Close()

	_, err = client.ListModels(ctx).Next()
	if err == nil || errors.Is(err, iterator.Done) {
		return true, nil
	}
	if IsAuthFailure(err) {
		return false, nil
	}
	return false, fmt.Errorf("list models failed: %w", err)
}

// BuildHistory injects the system prompt as the opening user turn and maps
// assistant turns to the model role. Stored system turns are dropped.
func BuildHistory(systemPrompt string, history []domain.ChatTurn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)+1)
	contents = append(contents, &genai.Content{
		Role:  roleUser,
		Parts: []genai.Part{genai.Text(systemPrompt)},
	})

	for _, turn := range domain.WithoutSystemTurns(history) {
		role := roleUser
		if turn.Role == domain.RoleAssistant {
			role = roleModel
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(turn.Content)},
		})
	}
	return contents
}

// ExtractReply concatenates the text parts of the first candidate
func ExtractReply(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var output string
	for _, part := range content.Parts {
		if text, ok := part.(genai.Text); ok {
			output += string(text)
		}
	}
	if output == "" {
		return "", fmt.Errorf("gemini response has no text parts")
	}
	return output, nil
}

// IsAuthFailure reports whether err is Gemini rejecting the key
func IsAuthFailure(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return true
		}
		return false
	}

	switch status.Code(err) {
	case codes.InvalidArgument, codes.Unauthenticated, codes.PermissionDenied:
		return true
	}
	return false
}
