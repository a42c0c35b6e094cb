package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"photo-recipe/internal/core/ai/anthropic"
	"photo-recipe/internal/core/ai/gemini"
	"photo-recipe/internal/core/ai/ollama"
	"photo-recipe/internal/core/ai/openai"
	"photo-recipe/internal/core/ai/openrouter"
	"photo-recipe/internal/core/ai/provider"
	"photo-recipe/internal/infrastructure/config"
	"photo-recipe/internal/pkg/common"
)

// NewProvider 依設定建立模型供應商
func NewProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	pc := provider.Config{
		APIKey:    cfg.AI.APIKey(),
		Model:     cfg.AI.Model,
		Timeout:   cfg.AI.Timeout,
		BaseURL:   cfg.AI.BaseURL,
		MaxTokens: cfg.AI.MaxTokens,
	}

	switch cfg.AI.Provider {
	case config.ProviderOpenRouter:
		return openrouter.NewClient(pc), nil
	case config.ProviderGemini:
		return gemini.NewClient(ctx, pc)
	case config.ProviderOpenAI:
		return openai.NewClient(pc), nil
	case config.ProviderAnthropic:
		return anthropic.NewClient(pc), nil
	case config.ProviderOllama:
		if pc.BaseURL == "" {
			pc.BaseURL = cfg.AI.OllamaHost
		}
		return ollama.NewClient(pc)
	default:
		return nil, fmt.Errorf("unsupported ai provider %q", cfg.AI.Provider)
	}
}

// Service AI 服務，包裝供應商並記錄每次呼叫
type Service struct {
	provider provider.Provider
}

// NewService 創建 AI 服務
func NewService(p provider.Provider) *Service {
	return &Service{provider: p}
}

// Provider 回傳底層供應商
func (s *Service) Provider() provider.Provider {
	return s.provider
}

// Generate 呼叫供應商，不快取也不重試
func (s *Service) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	start := time.Now()
	resp, err := s.provider.Generate(ctx, req)
	common.LogAICall(s.provider.Name(), s.provider.GetModel(), time.Since(start), err, common.RequestIDFromContext(ctx))
	if err != nil {
		return nil, err
	}

	common.LogDebug("AI usage",
		zap.String("provider", s.provider.Name()),
		zap.String("model", resp.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Int("content_length", len(resp.Content)),
	)
	return resp, nil
}
