package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/Rrens/rag-chatbot/internal/api"
	"github.com/Rrens/rag-chatbot/internal/api/handler"
	"github.com/Rrens/rag-chatbot/internal/config"
	"github.com/Rrens/rag-chatbot/internal/domain"
	"github.com/Rrens/rag-chatbot/internal/embedding"
	"github.com/Rrens/rag-chatbot/internal/llm"
	"github.com/Rrens/rag-chatbot/internal/llm/deepseek"
	"github.com/Rrens/rag-chatbot/internal/llm/gemini"
	"github.com/Rrens/rag-chatbot/internal/llm/groq"
	"github.com/Rrens/rag-chatbot/internal/llm/openai"
	"github.com/Rrens/rag-chatbot/internal/logger"
	"github.com/Rrens/rag-chatbot/internal/repository/memory"
	"github.com/Rrens/rag-chatbot/internal/repository/postgres"
	"github.com/Rrens/rag-chatbot/internal/repository/qdrant"
	"github.com/Rrens/rag-chatbot/internal/repository/redis"
	"github.com/Rrens/rag-chatbot/internal/security"
	"github.com/Rrens/rag-chatbot/internal/service"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load .env file - try multiple locations
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(p); err == nil {
			break
		}
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logFile, err := logger.Setup(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("store", cfg.Chat.Store).
		Msg("Starting RAG chatbot server")

	ctx := context.Background()
	readyChecks := map[string]handler.ReadinessCheck{}
	deps := api.Dependencies{ReadyChecks: readyChecks}

	// LLM providers
	llmRouter := llm.NewRouter(cfg.LLM.RequestTimeout)
	llmRouter.RegisterProvider(groq.NewProvider(cfg.LLM.Groq, cfg.LLM))
	llmRouter.RegisterProvider(openai.NewProvider(string(domain.ServiceOpenAI), cfg.LLM.OpenAI, cfg.LLM))
	llmRouter.RegisterProvider(deepseek.NewProvider(cfg.LLM.DeepSeek, cfg.LLM))
	llmRouter.RegisterProvider(gemini.NewProvider(cfg.LLM.Gemini, cfg.LLM))
	log.Info().Strs("providers", llmRouter.ListProviders()).Msg("LLM providers registered")

	keyOpts := []service.KeyServiceOption{
		service.WithFormatCheck(cfg.Security.KeyFormatCheck),
		service.WithFailOpen(cfg.Security.KeyValidationFailOpen),
	}
	if cfg.Security.KeyValidationFailOpen {
		log.Warn().Msg("Key validation fails open: provider outages are treated as valid keys")
	}

	var adminOpts []service.AdminOption

	// Conversation store
	var store domain.ConversationStore
	switch cfg.Chat.Store {
	case "memory":
		log.Warn().Msg("Using in-memory conversation store; history and rate limits are per process")
		store = memory.NewHistoryStore()
	default:
		redisClient, err := redis.NewClient(cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisClient.Close()

		store = redis.NewHistoryStore(redisClient)
		readyChecks["redis"] = redisClient.Ping
		keyCache := redis.NewKeyCache(redisClient, cfg.Security.KeyCacheTTL)
		keyOpts = append(keyOpts, service.WithKeyCache(keyCache))
		adminOpts = append(adminOpts, service.WithKeyCacheFlush(keyCache))
		deps.ChatLimiter = redis.NewRateLimiter(redisClient, "chat",
			cfg.Security.ChatRateLimit.Requests, cfg.Security.ChatRateLimit.Window)
		deps.KeyLimiter = redis.NewRateLimiter(redisClient, "validate-key",
			cfg.Security.ValidateKeyRateLimit.Requests, cfg.Security.ValidateKeyRateLimit.Window)
	}

	// Vector index
	index, err := qdrant.New(cfg.Qdrant)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Qdrant client")
	}
	defer index.Close()
	if err := index.EnsureCollection(ctx); err != nil {
		// RAG degrades to empty context until Qdrant is reachable
		log.Error().Err(err).Str("collection", cfg.Qdrant.Collection).Msg("Failed to initialize vector collection")
	}
	readyChecks["qdrant"] = index.Health

	keys := service.NewKeyService(llmRouter, keyOpts...)
	rag := service.NewRAGService(embedding.NewHashEmbedder(cfg.Qdrant.Dimension), index, cfg.RAG)
	chatOpts := []service.ChatOption{service.WithRetriever(rag)}

	// Transcript archive
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := postgres.RunMigrations(cfg.Database.DSN(), cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}

		archive := postgres.NewTranscriptRepository(db.Pool)
		chatOpts = append(chatOpts, service.WithArchive(archive))
		adminOpts = append(adminOpts, service.WithStatsArchive(archive))
		readyChecks["postgres"] = db.Ping
	}

	// Admin routes
	checker, err := security.NewAdminKeyChecker(cfg.Admin.APIKeyHash)
	switch {
	case errors.Is(err, security.ErrAdminDisabled):
		log.Warn().Msg("ADMIN_API_KEY_HASH not set, admin routes disabled")
	case err != nil:
		log.Fatal().Err(err).Msg("Invalid admin key hash")
	default:
		admin := service.NewAdminService(adminOpts...)
		deps.AdminAuth = checker
		if cfg.Database.Enabled {
			deps.Stats = admin
		}
		if cfg.Chat.Store != "memory" {
			deps.KeyCache = admin
		}
	}

	deps.Chat = service.NewChatService(store, keys, llmRouter, cfg.Chat, chatOpts...)
	deps.Keys = keys
	deps.RAG = rag

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewRouter(cfg, deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
