package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "MAX_UPLOAD_BYTES", "CORS_ALLOWED_ORIGINS", "GEMINI_API_KEY", "API_KEY",
		"GEMINI_CHAT_MODEL", "GEMINI_IMAGE_MODEL", "AI_CHAT_PROVIDER", "CHAT_HISTORY_LIMIT",
		"SESSION_IDLE_TTL", "CHAT_RATE_PER_MINUTE", "CHAT_RATE_BURST", "LOG_LEVEL", "LOG_DEVELOPMENT",
		"ARK_TEMPERATURE", "ARK_MAX_TOKENS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.Server.MaxUploadBytes)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, ChatProviderGemini, cfg.AI.ChatProvider)
	assert.Equal(t, DefaultGeminiImageModel, cfg.AI.GeminiImageModel)
	assert.False(t, cfg.AI.Enabled())
	assert.Equal(t, DefaultSessionIdleTTL, cfg.Session.IdleTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "127.0.0.1:9000")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("SESSION_IDLE_TTL", "15m")
	t.Setenv("CHAT_HISTORY_LIMIT", "-3")
	t.Setenv("AI_CHAT_PROVIDER", "ARK")
	t.Setenv("ARK_MODEL", "doubao")
	t.Setenv("ARK_API_KEY", "ark-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.True(t, cfg.AI.Enabled())
	assert.Equal(t, 15*time.Minute, cfg.Session.IdleTTL)
	assert.Equal(t, 0, cfg.AI.HistoryLimit)
	assert.Equal(t, ChatProviderArk, cfg.AI.ChatProvider)
	assert.True(t, cfg.AI.Ark.Enabled())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":             "80 80",
		"MAX_UPLOAD_BYTES": "-1",
		"AI_CHAT_PROVIDER": "openai",
		"SESSION_IDLE_TTL": "soon",
		"LOG_DEVELOPMENT":  "maybe",
		"ARK_TEMPERATURE":  "warm",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
