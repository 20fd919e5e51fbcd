package api

import (
	"net/http"
	"slices"

	"github.com/Rrens/rag-chatbot/internal/api/handler"
	customMiddleware "github.com/Rrens/rag-chatbot/internal/api/middleware"
	"github.com/Rrens/rag-chatbot/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"
)

// Dependencies are the services the HTTP layer talks to.
// Nil limiters disable rate limiting. Admin routes need AdminAuth; each is mounted only when its backend is set.
type Dependencies struct {
	Chat        handler.ChatService
	Keys        handler.KeyValidator
	RAG         handler.RAGService
	Stats       handler.StatsProvider
	KeyCache    handler.KeyCacheFlusher
	AdminAuth   customMiddleware.KeyChecker
	ChatLimiter customMiddleware.Limiter
	KeyLimiter  customMiddleware.Limiter
	ReadyChecks map[string]handler.ReadinessCheck
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}

	origins := cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	// Credentials are never allowed for a wildcard origin
	allowCredentials := !slices.Contains(origins, "*")
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", customMiddleware.AdminKeyHeader},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: allowCredentials,
		MaxAge:           300,
	}))

	chatHandler := handler.NewChatHandler(deps.Chat)
	sessionHandler := handler.NewSessionHandler(deps.Chat)
	keyHandler := handler.NewKeyHandler(deps.Keys)
	ragHandler := handler.NewRAGHandler(deps.RAG)

	r.Get("/health", handler.HealthCheck)
	r.Get("/ready", handler.ReadyCheck(deps.ReadyChecks))

	r.Route("/api", func(r chi.Router) {
		r.With(limit(deps.ChatLimiter, "Too many chat requests, please try again later.")...).
			Post("/chat", chatHandler.Chat)
		r.Get("/chat/history/{sessionID}", sessionHandler.GetHistory)
		r.Delete("/chat/history/{sessionID}", sessionHandler.Delete)

		r.With(limit(deps.KeyLimiter, "Too many API key validations, please try again later.")...).
			Post("/validate-key", keyHandler.Validate)

		r.Route("/rag", func(r chi.Router) {
			r.Post("/ingest", ragHandler.Ingest)
			r.Post("/search", ragHandler.Search)
			r.Get("/collection-info", ragHandler.CollectionInfo)
		})

		if deps.AdminAuth != nil && (deps.Stats != nil || deps.KeyCache != nil) {
			adminHandler := handler.NewAdminHandler(deps.Stats, deps.KeyCache)
			r.Route("/admin", func(r chi.Router) {
				r.Use(customMiddleware.NewAdminAuth(deps.AdminAuth).Authenticate)
				if deps.Stats != nil {
					r.Get("/stats", adminHandler.Stats)
				}
				if deps.KeyCache != nil {
					r.Delete("/key-cache", adminHandler.FlushKeyCache)
				}
			})
		} else {
			log.Info().Msg("Admin routes disabled")
		}
	})

	return r
}

func limit(limiter customMiddleware.Limiter, message string) []func(http.Handler) http.Handler {
	if limiter == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{
		customMiddleware.NewRateLimitMiddleware(limiter, message).Limit,
	}
}
