package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "intelligence_db.json", cfg.IntelDBPath)
	assert.Equal(t, 0.6, cfg.EngageThreshold)
	assert.Equal(t, 200, cfg.MaxReplyChars)
	assert.Equal(t, 10*time.Second, cfg.ClassifierTimeout)
	assert.Equal(t, 20*time.Second, cfg.GeneratorTimeout)
	assert.Equal(t, "gemini", cfg.LLMProvider)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("API_KEY", "secret")
	t.Setenv("ENGAGE_THRESHOLD", "0.75")
	t.Setenv("CLASSIFIER_TIMEOUT", "5s")
	t.Setenv("LLM_PROVIDER", "Bedrock")
	t.Setenv("REDIS_TLS", "true")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "secret", cfg.APIKey)
	assert.Equal(t, 0.75, cfg.EngageThreshold)
	assert.Equal(t, 5*time.Second, cfg.ClassifierTimeout)
	assert.Equal(t, "bedrock", cfg.LLMProvider)
	assert.True(t, cfg.RedisTLS)
}

func TestLoadCORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("ENGAGE_THRESHOLD", "not-a-number")
	t.Setenv("GENERATOR_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 0.6, cfg.EngageThreshold)
	assert.Equal(t, 20*time.Second, cfg.GeneratorTimeout)
}
