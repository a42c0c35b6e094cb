package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-recipe/internal/core/ai/openrouter"
	"photo-recipe/internal/core/ai/provider"
	"photo-recipe/internal/core/image"
	"photo-recipe/internal/core/recipe"
	"photo-recipe/internal/infrastructure/config"
)

type stubProvider struct {
	calls int
	resp  *provider.Response
	err   error
}

func (s *stubProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	s.calls++
	return s.resp, s.err
}
func (s *stubProvider) Name() string              { return "stub" }
func (s *stubProvider) GetModel() string          { return "stub-model" }
func (s *stubProvider) GetTimeout() time.Duration { return time.Second }
func (s *stubProvider) Close() error              { return nil }

func TestServiceGenerateDoesNotCache(t *testing.T) {
	stub := &stubProvider{resp: &provider.Response{Content: "{}"}}
	svc := NewService(stub)

	req := &provider.Request{Prompt: "same"}
	for i := 0; i < 2; i++ {
		resp, err := svc.Generate(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, "{}", resp.Content)
	}
	assert.Equal(t, 2, stub.calls)
}

func TestServiceGeneratePropagatesError(t *testing.T) {
	boom := errors.New("quota exceeded")
	svc := NewService(&stubProvider{err: boom})

	_, err := svc.Generate(context.Background(), &provider.Request{})
	assert.ErrorIs(t, err, boom)
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		provider string
		wantName string
	}{
		{config.ProviderOpenRouter, "openrouter"},
		{config.ProviderOpenAI, "openai"},
		{config.ProviderAnthropic, "anthropic"},
		{config.ProviderOllama, "ollama"},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := &config.Config{AI: config.AIConfig{
				Provider:         tt.provider,
				Model:            "m",
				MaxTokens:        100,
				Timeout:          time.Second,
				OpenRouterAPIKey: "k",
				OpenAIAPIKey:     "k",
				AnthropicAPIKey:  "k",
				OllamaHost:       "http://localhost:11434",
			}}
			p, err := NewProvider(context.Background(), cfg)
			require.NoError(t, err)
			defer p.Close()
			assert.Equal(t, tt.wantName, p.Name())
			assert.Equal(t, "m", p.GetModel())
		})
	}

	_, err := NewProvider(context.Background(), &config.Config{AI: config.AIConfig{Provider: "nope"}})
	assert.Error(t, err)
}

func TestNoChoicesBecomesEmptySuggestions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	client := openrouter.NewClient(provider.Config{
		APIKey:    "test-key",
		Model:     "test-model",
		Timeout:   5 * time.Second,
		BaseURL:   srv.URL,
		MaxTokens: 100,
	})
	contract, err := recipe.NewContract(recipe.ContractStructured)
	require.NoError(t, err)
	svc := recipe.NewSuggestionService(NewService(client), contract)

	result, err := svc.SuggestRecipesFromPhoto(context.Background(), image.Encode([]byte{0x89, 'P', 'N', 'G'}, "image/png"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Empty())
}
