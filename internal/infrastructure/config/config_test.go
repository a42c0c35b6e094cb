package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-or-test-key")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ProviderOpenRouter, cfg.AI.Provider)
	assert.Equal(t, ContractStructured, cfg.AI.Contract)
	assert.Equal(t, defaultModels[ProviderOpenRouter], cfg.AI.Model)
	assert.Equal(t, "sk-or-test-key", cfg.AI.APIKey())
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	assert.Equal(t, int64(10*1024*1024), cfg.Image.MaxSizeBytes)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("AI_PROVIDER", "Gemini")
	t.Setenv("AI_CONTRACT", "raw_text")
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "5m")
	t.Setenv("RATE_LIMIT_REQUESTS", "7")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, ContractRawText, cfg.AI.Contract)
	assert.Equal(t, "g-key", cfg.AI.APIKey())
	assert.Equal(t, "gemini-2.0-flash", cfg.AI.Model)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Minute, cfg.Session.TTL)
	assert.Equal(t, 7, cfg.RateLimit.Requests)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "missing api key",
			env:  map[string]string{"AI_PROVIDER": "openai", "OPENAI_API_KEY": ""},
			want: "api key for provider openai is required",
		},
		{
			name: "unknown provider",
			env:  map[string]string{"AI_PROVIDER": "mystery"},
			want: "unsupported ai provider",
		},
		{
			name: "unknown contract",
			env:  map[string]string{"AI_PROVIDER": "ollama", "AI_CONTRACT": "xml"},
			want: "unsupported ai contract",
		},
		{
			name: "zero session ttl",
			env:  map[string]string{"AI_PROVIDER": "ollama", "SESSION_TTL": "0s"},
			want: "invalid session ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOllamaNeedsNoKey(t *testing.T) {
	t.Setenv("AI_PROVIDER", "ollama")
	t.Setenv("AI_MODEL", "llava:13b")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "llava:13b", cfg.AI.Model)
	assert.Equal(t, "http://localhost:11434", cfg.AI.OllamaHost)
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", MaskAPIKey("short"))
	assert.Equal(t, "sk-o...-key", MaskAPIKey("sk-or-test-key"))
}
