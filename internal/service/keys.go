package service

import (
	"context"

	"github.com/Rrens/rag-chatbot/internal/domain"
	"github.com/Rrens/rag-chatbot/internal/llm"
	"github.com/Rrens/rag-chatbot/internal/security"
	"github.com/rs/zerolog/log"
)

// ProviderRegistry resolves providers by service type
type ProviderRegistry interface {
	GetProvider(name string) (llm.Provider, error)
}

// KeyValidationCache remembers definitive validation outcomes
type KeyValidationCache interface {
	Get(ctx context.Context, service, apiKey string) (bool, bool, error)
	Set(ctx context.Context, service, apiKey string, valid bool) error
}

// KeyService decides whether a caller-supplied provider key is usable
type KeyService struct {
	providers   ProviderRegistry
	format      *security.KeyFormatValidator
	formatCheck bool
	failOpen    bool
	cache       KeyValidationCache
}

// KeyServiceOption configures a KeyService
type KeyServiceOption func(*KeyService)

// WithFormatCheck rejects keys that do not match the provider's pattern before any network call
func WithFormatCheck(enabled bool) KeyServiceOption {
	return func(s *KeyService) { s.formatCheck = enabled }
}

// WithFailOpen treats ambiguous provider failures as a valid key
func WithFailOpen(enabled bool) KeyServiceOption {
	return func(s *KeyService) { s.failOpen = enabled }
}

// WithKeyCache enables caching of definitive outcomes
func WithKeyCache(cache KeyValidationCache) KeyServiceOption {
	return func(s *KeyService) { s.cache = cache }
}

// NewKeyService creates a new key service. Fail-open is on and the format pre-check off by default.
func NewKeyService(providers ProviderRegistry, opts ...KeyServiceOption) *KeyService {
	s := &KeyService{
		providers: providers,
		format:    security.NewKeyFormatValidator(),
		failOpen:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate returns false for unknown services and for keys the provider rejects.
// Ambiguous failures such as timeouts or 5xx answers follow the fail-open setting.
func (s *KeyService) Validate(ctx context.Context, apiKey, serviceType string) bool {
	service := domain.ServiceType(serviceType)
	if !service.Valid() || apiKey == "" {
		return false
	}

	provider, err := s.providers.GetProvider(serviceType)
	if err != nil {
		return false
	}

	if s.formatCheck && !s.format.Match(service, apiKey) {
		log.Debug().Str("service", serviceType).Str("key", security.MaskKey(apiKey)).Msg("API key failed format check")
		return false
	}

	if s.cache != nil {
		valid, found, err := s.cache.Get(ctx, serviceType, apiKey)
		if err != nil {
			log.Warn().Err(err).Msg("Key cache lookup failed")
		} else if found {
			return valid
		}
	}

	valid, err := provider.ValidateKey(ctx, apiKey)
	if err != nil {
		log.Warn().
			Err(err).
			Str("service", serviceType).
			Bool("fail_open", s.failOpen).
			Msg("API key validation inconclusive")
		return s.failOpen
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, serviceType, apiKey, valid); err != nil {
			log.Warn().Err(err).Msg("Key cache write failed")
		}
	}
	return valid
}
