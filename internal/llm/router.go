package llm

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Rrens/rag-chatbot/internal/domain"
)

// DefaultTimeout bounds a single provider call
const DefaultTimeout = 30 * time.Second

// Input is a provider-agnostic chat completion request
type Input struct {
	Message        string
	History        []domain.ChatTurn
	APIKey         string
	ServiceType    string
	Characteristic domain.Characteristic
	Context        string
}

// Router manages LLM providers and dispatches by service type
type Router struct {
	providers map[string]Provider
	timeout   time.Duration
	mu        sync.RWMutex
}

// NewRouter creates a new LLM router
func NewRouter(timeout time.Duration) *Router {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Router{
		providers: make(map[string]Provider),
		timeout:   timeout,
	}
}

// RegisterProvider registers an LLM provider
func (r *Router) RegisterProvider(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[provider.Name()] = provider
}

// GetProvider returns a provider by name
func (r *Router) GetProvider(name string) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[name]
	if !ok {
		return nil, &domain.UnsupportedProviderError{Service: name}
	}
	return p, nil
}

// ListProviders returns registered provider names in sorted order
func (r *Router) ListProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetResponse builds the system prompt and calls the provider for in.ServiceType
func (r *Router) GetResponse(ctx context.Context, in Input) (string, error) {
	p, err := r.GetProvider(in.ServiceType)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reply, err := p.Generate(ctx, Request{
		APIKey:       in.APIKey,
		SystemPrompt: SystemPrompt(in.Characteristic, in.Context),
		History:      in.History,
		Message:      in.Message,
	})
	if err != nil {
		return "", &domain.ProviderCallError{Provider: p.Name(), Err: err}
	}
	return reply, nil
}
