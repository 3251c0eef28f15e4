package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "veriscan.db", cfg.SQLitePath)
	assert.Equal(t, BackendAnthropic, cfg.ModelBackend)
	assert.Equal(t, "claude-3-5-sonnet-20240620", cfg.ClaudeModel)
	assert.Equal(t, "http://localhost:1234", cfg.OpenAIBaseURL)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, 30*time.Second, cfg.ExtractTimeout)
	assert.Equal(t, 3, cfg.ExtractMaxRetries)
	assert.Equal(t, 1500, cfg.MaxTokens)
	assert.Equal(t, 10, cfg.MaxContextMessages)
	assert.Equal(t, "veriscan.analysis-events", cfg.KafkaTopicEvents)
	assert.Empty(t, cfg.KafkaBootstrapServers)
	assert.Equal(t, "8000", cfg.ServerPort)
	assert.Equal(t, "INFO", cfg.LogLevel)
}

func TestLoad_BackendSelection(t *testing.T) {
	t.Setenv("MODEL_BACKEND", "openai")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, BackendOpenAI, cfg.ModelBackend)
}

func TestLoad_InvalidBackendRejected(t *testing.T) {
	t.Setenv("MODEL_BACKEND", "bedrock")

	_, err := Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "MODEL_BACKEND")
}

func TestLoad_MissingAPIKeyIsNotFatal(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Empty(t, cfg.AnthropicAPIKey)
}

func TestLoad_KafkaBrokersParsed(t *testing.T) {
	t.Setenv("KAFKA_BOOTSTRAP_SERVERS", "broker1:9092, broker2:9092 ,")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBootstrapServers)
}

func TestLoad_CORSOriginsParsed(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "http://localhost:3000, https://app.example.com")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, []string{"http://localhost:3000", "https://app.example.com"}, cfg.CORSOrigins)
}

func TestLoad_NumericOverrides(t *testing.T) {
	t.Setenv("EXTRACT_TIMEOUT_SECONDS", "10")
	t.Setenv("EXTRACT_MAX_RETRIES", "5")
	t.Setenv("MODEL_MAX_TOKENS", "2048")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 10*time.Second, cfg.ExtractTimeout)
	assert.Equal(t, 5, cfg.ExtractMaxRetries)
	assert.Equal(t, 2048, cfg.MaxTokens)
}

func TestLoad_MalformedIntFallsBack(t *testing.T) {
	t.Setenv("EXTRACT_MAX_RETRIES", "not-a-number")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.ExtractMaxRetries)
}
