package security

import (
	"regexp"
	"strings"

	"github.com/Rrens/rag-chatbot/internal/domain"
)

// KeyFormatValidator is a cheap syntactic pre-check run before any provider call
type KeyFormatValidator struct {
	patterns map[domain.ServiceType]*regexp.Regexp
}

// NewKeyFormatValidator creates a validator with permissive per-provider patterns
func NewKeyFormatValidator() *KeyFormatValidator {
	patterns := map[domain.ServiceType]string{
		domain.ServiceGroq:     `^gsk_[A-Za-z0-9]{20,}$`,
		domain.ServiceGemini:   `^AIza[0-9A-Za-z_\-]{30,}$`,
		domain.ServiceOpenAI:   `^sk-[A-Za-z0-9_\-]{20,}$`,
		domain.ServiceDeepSeek: `^sk-[A-Za-z0-9]{20,}$`,
	}

	compiled := make(map[domain.ServiceType]*regexp.Regexp, len(patterns))
	for service, p := range patterns {
		compiled[service] = regexp.MustCompile(p)
	}

	return &KeyFormatValidator{patterns: compiled}
}

// Match reports whether key looks like a credential for service.
// Unknown services never match.
func (v *KeyFormatValidator) Match(service domain.ServiceType, key string) bool {
	re, ok := v.patterns[service]
	if !ok {
		return false
	}
	return re.MatchString(strings.TrimSpace(key))
}

// MaskKey keeps the first four characters for log lines
func MaskKey(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return key[:4] + "****"
}
