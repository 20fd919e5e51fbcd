package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Qdrant   QdrantConfig   `mapstructure:"qdrant"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Chat     ChatConfig     `mapstructure:"chat"`
	RAG      RAGConfig      `mapstructure:"rag"`
	Security SecurityConfig `mapstructure:"security"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type QdrantConfig struct {
	URL        string `mapstructure:"url"`
	APIKey     string `mapstructure:"api_key"`
	Collection string `mapstructure:"collection"`
	Dimension  int    `mapstructure:"dimension"`
}

// DatabaseConfig configures the optional Postgres transcript archive
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Database       string `mapstructure:"database"`
	SSLMode        string `mapstructure:"ssl_mode"`
	MaxConns       int32  `mapstructure:"max_conns"`
	MinConns       int32  `mapstructure:"min_conns"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode,
	)
}

type LLMConfig struct {
	RequestTimeout time.Duration      `mapstructure:"request_timeout"`
	Temperature    float32            `mapstructure:"temperature"`
	MaxTokens      int                `mapstructure:"max_tokens"`
	Groq           OpenAICompatConfig `mapstructure:"groq"`
	OpenAI         OpenAICompatConfig `mapstructure:"openai"`
	DeepSeek       OpenAICompatConfig `mapstructure:"deepseek"`
	Gemini         GeminiConfig       `mapstructure:"gemini"`
}

// OpenAICompatConfig configures a provider that speaks the OpenAI chat completions API
type OpenAICompatConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

type GeminiConfig struct {
	Model string `mapstructure:"model"`
}

type ChatConfig struct {
	Store              string        `mapstructure:"store"`
	HistoryLimit       int           `mapstructure:"history_limit"`
	HistoryTTL         time.Duration `mapstructure:"history_ttl"`
	RAGCharacteristics []string      `mapstructure:"rag_characteristics"`
	RAGLimit           int           `mapstructure:"rag_limit"`
}

type RAGConfig struct {
	SearchLimit      int           `mapstructure:"search_limit"`
	MaxLimit         int           `mapstructure:"max_limit"`
	RetrievalTimeout time.Duration `mapstructure:"retrieval_timeout"`
}

type SecurityConfig struct {
	KeyFormatCheck        bool            `mapstructure:"key_format_check"`
	KeyValidationFailOpen bool            `mapstructure:"key_validation_fail_open"`
	KeyCacheTTL           time.Duration   `mapstructure:"key_cache_ttl"`
	ChatRateLimit         RateLimitConfig `mapstructure:"chat_rate_limit"`
	ValidateKeyRateLimit  RateLimitConfig `mapstructure:"validate_key_rate_limit"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type AdminConfig struct {
	APIKeyHash string `mapstructure:"api_key_hash"`
}

type LoggingConfig struct {
	Level        string        `mapstructure:"level"`
	Format       string        `mapstructure:"format"`
	File         string        `mapstructure:"file"`
	MaxAge       time.Duration `mapstructure:"max_age"`
	RotationTime time.Duration `mapstructure:"rotation_time"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	v := viper.New()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./configs/config.yaml"
	}

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	v.AutomaticEnv()
	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	if c.Chat.HistoryLimit < 2 {
		return fmt.Errorf("chat.history_limit must be at least 2, got %d", c.Chat.HistoryLimit)
	}
	if c.Chat.HistoryTTL <= 0 {
		return fmt.Errorf("chat.history_ttl must be positive")
	}
	switch c.Chat.Store {
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown chat.store %q (want redis or memory)", c.Chat.Store)
	}
	if c.Qdrant.Dimension <= 0 {
		return fmt.Errorf("qdrant.dimension must be positive, got %d", c.Qdrant.Dimension)
	}
	if c.RAG.MaxLimit < 1 {
		return fmt.Errorf("rag.max_limit must be at least 1")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "55s")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("server.cors_origins", []string{"*"})

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Qdrant
	v.SetDefault("qdrant.url", "http://localhost:6334")
	v.SetDefault("qdrant.collection", "news-articles")
	v.SetDefault("qdrant.dimension", 768)

	// Database
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "chatbot")
	v.SetDefault("database.database", "chatbot")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.migrations_path", "file://migrations")

	// LLM
	v.SetDefault("llm.request_timeout", "30s")
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1000)
	v.SetDefault("llm.groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("llm.groq.model", "llama-3.1-8b-instant")
	v.SetDefault("llm.openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("llm.openai.model", "gpt-4o-mini")
	v.SetDefault("llm.deepseek.base_url", "https://api.deepseek.com/v1")
	v.SetDefault("llm.deepseek.model", "deepseek-chat")
	v.SetDefault("llm.gemini.model", "gemini-1.5-flash")

	// Chat
	v.SetDefault("chat.store", "redis")
	v.SetDefault("chat.history_limit", 20)
	v.SetDefault("chat.history_ttl", "24h")
	v.SetDefault("chat.rag_characteristics", []string{"news"})
	v.SetDefault("chat.rag_limit", 3)

	// RAG
	v.SetDefault("rag.search_limit", 5)
	v.SetDefault("rag.max_limit", 50)
	v.SetDefault("rag.retrieval_timeout", "10s")

	// Security
	v.SetDefault("security.key_format_check", false)
	v.SetDefault("security.key_validation_fail_open", true)
	v.SetDefault("security.key_cache_ttl", "5m")
	v.SetDefault("security.chat_rate_limit.requests", 100)
	v.SetDefault("security.chat_rate_limit.window", "15m")
	v.SetDefault("security.validate_key_rate_limit.requests", 50)
	v.SetDefault("security.validate_key_rate_limit.window", "1h")

	// Logging
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.max_age", "168h")
	v.SetDefault("logging.rotation_time", "24h")
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.cors_origins", "FRONTEND_URL")

	// Redis
	v.BindEnv("redis.url", "REDIS_URL")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Qdrant
	v.BindEnv("qdrant.url", "QDRANT_URL")
	v.BindEnv("qdrant.api_key", "QDRANT_API_KEY")
	v.BindEnv("qdrant.collection", "QDRANT_COLLECTION")

	// Database
	v.BindEnv("database.password", "POSTGRES_PASSWORD")

	// Admin
	v.BindEnv("admin.api_key_hash", "ADMIN_API_KEY_HASH")

	v.BindEnv("logging.level", "LOG_LEVEL")
}
