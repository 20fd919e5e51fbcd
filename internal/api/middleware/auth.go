package middleware

import (
	"net/http"

	"github.com/Rrens/rag-chatbot/internal/api/response"
	"github.com/rs/zerolog/log"
)

// AdminKeyHeader carries the admin key on admin routes
const AdminKeyHeader = "X-API-Key"

// KeyChecker verifies a presented admin key
type KeyChecker interface {
	Check(key string) bool
}

// AdminAuth guards admin routes with a static key
type AdminAuth struct {
	checker KeyChecker
}

// NewAdminAuth creates a new admin auth middleware
func NewAdminAuth(checker KeyChecker) *AdminAuth {
	return &AdminAuth{checker: checker}
}

// Authenticate rejects requests without a valid X-API-Key header
func (m *AdminAuth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(AdminKeyHeader)
		if key == "" {
			response.Unauthorized(w, "missing API key")
			return
		}

		if !m.checker.Check(key) {
			log.Warn().Str("remote_addr", r.RemoteAddr).Msg("Rejected admin key")
			response.Unauthorized(w, "invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}
