package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"os"

	"github.com/joho/godotenv"
)

// Backend identifies which model backend the gateway talks to.
const (
	BackendAnthropic = "anthropic"
	BackendOpenAI    = "openai"
)

// Config holds all configuration for the application
type Config struct {
	// Database configuration (empty URL falls back to local SQLite)
	DatabaseURL string
	SQLitePath  string

	// Model backend selection
	ModelBackend string

	// Anthropic API configuration
	AnthropicAPIKey string
	ClaudeModel     string

	// OpenAI-compatible backend configuration (LM Studio, OpenRouter, OpenAI)
	OpenAIBaseURL string
	OpenAIAPIKey  string
	OpenAIModel   string

	// Content extraction configuration
	ExtractTimeout    time.Duration
	ExtractMaxRetries int

	// Gateway configuration
	GatewayTimeout time.Duration
	MaxTokens      int

	// Conversation configuration
	MaxContextMessages int

	// Kafka analysis-event stream (disabled when no brokers configured)
	KafkaBootstrapServers []string
	KafkaTopicEvents      string

	// Server configuration
	ServerPort string
	LogLevel   string

	// CORS configuration
	CORSOrigins []string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		SQLitePath:         getEnvWithDefault("SQLITE_PATH", "veriscan.db"),
		ModelBackend:       getEnvWithDefault("MODEL_BACKEND", BackendAnthropic),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		ClaudeModel:        getEnvWithDefault("CLAUDE_MODEL", "claude-3-5-sonnet-20240620"),
		OpenAIBaseURL:      getEnvWithDefault("OPENAI_BASE_URL", "http://localhost:1234"),
		OpenAIAPIKey:       os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        getEnvWithDefault("OPENAI_MODEL", "gpt-4o"),
		ExtractTimeout:     getEnvDuration("EXTRACT_TIMEOUT_SECONDS", 30),
		ExtractMaxRetries:  getEnvInt("EXTRACT_MAX_RETRIES", 3),
		GatewayTimeout:     getEnvDuration("GATEWAY_TIMEOUT_SECONDS", 30),
		MaxTokens:          getEnvInt("MODEL_MAX_TOKENS", 1500),
		MaxContextMessages: getEnvInt("MAX_CONTEXT_MESSAGES", 10),
		KafkaTopicEvents:   getEnvWithDefault("KAFKA_TOPIC_EVENTS", "veriscan.analysis-events"),
		ServerPort:         getEnvWithDefault("SERVER_PORT", "8000"),
		LogLevel:           getEnvWithDefault("LOG_LEVEL", "INFO"),
	}

	// Parse Kafka brokers; event publishing stays disabled without them
	if brokers := os.Getenv("KAFKA_BOOTSTRAP_SERVERS"); brokers != "" {
		for _, b := range strings.Split(brokers, ",") {
			if b = strings.TrimSpace(b); b != "" {
				cfg.KafkaBootstrapServers = append(cfg.KafkaBootstrapServers, b)
			}
		}
	}

	// Parse CORS origins
	corsOriginsStr := getEnvWithDefault("CORS_ORIGINS", "http://localhost:3000")
	cfg.CORSOrigins = strings.Split(corsOriginsStr, ",")
	for i := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(cfg.CORSOrigins[i])
	}

	if cfg.ModelBackend != BackendAnthropic && cfg.ModelBackend != BackendOpenAI {
		return nil, fmt.Errorf("MODEL_BACKEND must be %q or %q, got %q", BackendAnthropic, BackendOpenAI, cfg.ModelBackend)
	}

	// Note: the model API key is deliberately not validated here. The gateway
	// checks the credential before its first network call so the process can
	// start without one (e.g. when only the community backend is used).

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}
